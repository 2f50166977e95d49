package infer

import (
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
)

// Rule names recorded on bronze/silver relationships
const (
	RuleRegistryExact = "registry_exact"
	RuleRegistryFuzzy = "registry_fuzzy"
	RuleCatalogScan   = "catalog_scan"
	RulePattern       = "pattern"
)

// masterRegistry maps entity names to their master table. Iteration
// follows first registration; re-registering an entity replaces the
// table but keeps its position.
type masterRegistry struct {
	order  []string
	tables map[string]string
}

func newMasterRegistry() *masterRegistry {
	return &masterRegistry{tables: make(map[string]string)}
}

func (r *masterRegistry) set(entity, table string) {
	if _, ok := r.tables[entity]; !ok {
		r.order = append(r.order, entity)
	}
	r.tables[entity] = table
}

func (r *masterRegistry) get(entity string) (string, bool) {
	t, ok := r.tables[entity]
	return t, ok
}

// edgeSet tracks emitted (from, to) pairs
type edgeSet map[[2]string]bool

func (s edgeSet) add(from, to string) bool {
	k := [2]string{from, to}
	if s[k] {
		return false
	}
	s[k] = true
	return true
}

// GenerateLayerRelationships infers foreign-key edges between bronze or
// silver tables. Master tables are registered by entity name, FK fields
// are resolved against that registry (exact, then fuzzy, then a scan of
// the whole table list) and finally the known patterns of rules are
// injected. No two returned edges share a (from, to) pair.
func GenerateLayerRelationships(tables []catalog.TableDescriptor, rules Rules) []catalog.Relationship {
	registry := buildRegistry(tables, rules)
	seen := make(edgeSet)
	var relationships []catalog.Relationship

	for _, table := range tables {
		for _, field := range catalog.ForeignKeyFields(table) {
			target, rule := resolveForeignKey(table.Name, field, registry, tables)
			if target == "" || target == table.Name {
				continue
			}
			if !seen.add(table.Name, target) {
				continue
			}
			relationships = append(relationships, catalog.Relationship{
				From:       table.Name,
				To:         target,
				FromColumn: field,
				ToColumn:   field,
				Rule:       rule,
			})
		}
	}

	for _, p := range rules.LayerPatterns {
		from, ok := findTableContaining(tables, p.From)
		if !ok {
			continue
		}
		to, ok := findTableContaining(tables, p.To)
		if !ok || from == to {
			continue
		}
		if !seen.add(from, to) {
			continue
		}
		relationships = append(relationships, catalog.Relationship{
			From:       from,
			To:         to,
			FromColumn: p.Field,
			ToColumn:   p.Field,
			Rule:       RulePattern,
		})
	}

	return relationships
}

func buildRegistry(tables []catalog.TableDescriptor, rules Rules) *masterRegistry {
	registry := newMasterRegistry()
	for _, table := range tables {
		if !containsAny(table.Name, rules.MasterMarkers) {
			continue
		}
		if entity, ok := EntityFromTable(table.Name, rules); ok {
			registry.set(entity, table.Name)
		}
	}
	return registry
}

// ForeignKeyEntity strips key suffixes and source_/parent_ prefixes from
// an FK field: "source_customer_id" -> "customer".
func ForeignKeyEntity(field string) string {
	e := trimSuffixFold(field, "_id")
	e = trimSuffixFold(e, "_key")
	e = strings.TrimPrefix(e, "source_")
	e = strings.TrimPrefix(e, "parent_")
	return e
}

// marketingVariant returns the plural mktg_ form marketing master tables
// use: "campaign" -> "mktg_campaigns"
func marketingVariant(tableName, fkEntity string) string {
	if !strings.Contains(strings.ToLower(tableName), "mktg_") || strings.HasPrefix(fkEntity, "mktg_") {
		return fkEntity
	}
	plural := fkEntity
	if !strings.HasSuffix(plural, "s") {
		plural += "s"
	}
	return "mktg_" + plural
}

func resolveForeignKey(tableName, field string, registry *masterRegistry, tables []catalog.TableDescriptor) (string, string) {
	fkEntity := ForeignKeyEntity(field)
	variant := marketingVariant(tableName, fkEntity)

	if t, ok := registry.get(fkEntity); ok {
		return t, RuleRegistryExact
	}
	if t, ok := registry.get(variant); ok {
		return t, RuleRegistryExact
	}

	squashed := strings.Replace(fkEntity, "_", "", 1)
	for _, entity := range registry.order {
		if strings.Contains(entity, fkEntity) ||
			strings.Contains(fkEntity, entity) ||
			strings.Replace(entity, "_", "", 1) == squashed {
			return registry.tables[entity], RuleRegistryFuzzy
		}
	}

	fkLower := strings.ToLower(fkEntity)
	for _, t := range tables {
		name := strings.ToLower(t.Name)
		if !strings.Contains(name, fkLower) {
			continue
		}
		if strings.Contains(name, "master") ||
			strings.Contains(name, "golden") ||
			strings.Contains(name, "dim_") ||
			name == "bronze."+fkLower ||
			name == "silver."+fkLower {
			return t.Name, RuleCatalogScan
		}
	}

	return "", ""
}

func findTableContaining(tables []catalog.TableDescriptor, fragment string) (string, bool) {
	for _, t := range tables {
		if strings.Contains(strings.ToLower(t.Name), fragment) {
			return t.Name, true
		}
	}
	return "", false
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func trimSuffixFold(s, suffix string) string {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}
