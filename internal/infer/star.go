package infer

import (
	"slices"
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
)

// Rule names recorded on star-schema relationships
const (
	RuleSubstring          = "substring"
	RuleUniversalDimension = "universal_dimension"
	RuleBusinessDimension  = "business_dimension"
	RuleProduct            = "product"
	RuleDomainKeyword      = "domain_keyword"
	RuleStatusType         = "status_type"
)

// GenerateStarSchemaRelationships links every gold fact to the dimensions
// it likely references. Each edge uses "<dim>_key" on both sides. Output is
// ordered by fact, then by dimension, in input order.
func GenerateStarSchemaRelationships(dimensions, facts []catalog.TableDescriptor, rules Rules) []catalog.Relationship {
	var relationships []catalog.Relationship

	for _, fact := range facts {
		factBase := strings.TrimPrefix(StripLayerPrefix(fact.Name), "fact_")

		for _, dim := range dimensions {
			if dim.Name == fact.Name {
				continue
			}
			dimBase := strings.TrimPrefix(StripLayerPrefix(dim.Name), "dim_")

			rule, ok := matchStarRule(factBase, dimBase, rules)
			if !ok {
				continue
			}
			key := dimBase + "_key"
			relationships = append(relationships, catalog.Relationship{
				From:       fact.Name,
				To:         dim.Name,
				FromColumn: key,
				ToColumn:   key,
				Rule:       rule,
			})
		}
	}

	return relationships
}

// matchStarRule returns the first heuristic that connects the pair
func matchStarRule(factBase, dimBase string, rules Rules) (string, bool) {
	switch {
	case strings.Contains(factBase, dimBase):
		return RuleSubstring, true
	case slices.Contains(rules.UniversalDimensions, dimBase):
		return RuleUniversalDimension, true
	case slices.Contains(rules.BusinessDimensions, dimBase):
		return RuleBusinessDimension, true
	case dimBase == "product",
		strings.Contains(dimBase, "product") &&
			strings.Contains(factBase, strings.Replace(dimBase, "_product", "", 1)):
		return RuleProduct, true
	case matchDomainKeyword(factBase, dimBase, rules.DomainKeywords):
		return RuleDomainKeyword, true
	case strings.Contains(dimBase, "status") &&
		strings.Contains(factBase, strings.Replace(dimBase, "_status", "", 1)),
		strings.Contains(dimBase, "type") &&
			strings.Contains(factBase, strings.Replace(dimBase, "_type", "", 1)):
		return RuleStatusType, true
	}
	return "", false
}

func matchDomainKeyword(factBase, dimBase string, keywords []DomainKeyword) bool {
	for _, kw := range keywords {
		if kw.Dimension != dimBase {
			continue
		}
		for _, fk := range kw.FactKeywords {
			if strings.Contains(factBase, fk) {
				return true
			}
		}
	}
	return false
}
