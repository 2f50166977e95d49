package infer

import (
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
)

type normalizedEntity struct {
	original   string
	normalized string
}

// NormalizeEntity lowercases a name and drops every non-letter
func NormalizeEntity(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GenerateLogicalRelationships matches plain entity names against the
// logical templates of rules. A template binds each of its two keywords to
// an entity whose normalized name contains the keyword or is contained in
// it; which entity wins a contested slot depends on rules.MatchPolicy.
// At most one relationship is emitted per template and a (from, to) pair
// is never emitted twice.
func GenerateLogicalRelationships(entities []string, rules Rules) []catalog.LogicalRelationship {
	normalized := make([]normalizedEntity, 0, len(entities))
	for _, e := range entities {
		normalized = append(normalized, normalizedEntity{original: e, normalized: NormalizeEntity(e)})
	}

	var relationships []catalog.LogicalRelationship
	seen := make(edgeSet)

	for _, tmpl := range rules.LogicalTemplates {
		from, ok := bindSlot(normalized, tmpl.Keywords[0], rules.MatchPolicy)
		if !ok {
			continue
		}
		to, ok := bindSlot(normalized, tmpl.Keywords[1], rules.MatchPolicy)
		if !ok || from == to {
			continue
		}
		if !seen.add(from, to) {
			continue
		}
		relationships = append(relationships, catalog.LogicalRelationship{
			From:  from,
			To:    to,
			Type:  tmpl.Type,
			Label: tmpl.Label,
		})
	}

	return relationships
}

func keywordMatches(e normalizedEntity, keyword string) bool {
	return strings.Contains(e.normalized, keyword) || strings.Contains(keyword, e.normalized)
}

// bindSlot picks the entity for one template keyword. An empty original
// name never binds.
func bindSlot(entities []normalizedEntity, keyword string, policy MatchPolicy) (string, bool) {
	var bound string
	distinct := 0
	for _, e := range entities {
		if !keywordMatches(e, keyword) {
			continue
		}
		switch policy {
		case MatchFirst:
			if bound == "" {
				bound = e.original
			}
		case MatchReject:
			if e.original != bound {
				distinct++
			}
			bound = e.original
		default:
			bound = e.original
		}
	}
	if policy == MatchReject && distinct > 1 {
		return "", false
	}
	return bound, bound != ""
}
