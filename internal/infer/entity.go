// Package infer derives entity-relationship edges from catalog table
// descriptors. Every generator is a pure function of its inputs and the
// injected Rules: no I/O, no shared state, deterministic output order.
package infer

import "strings"

var layerPrefixes = []string{"bronze.", "silver.", "gold."}

// StripLayerPrefix removes a leading bronze./silver./gold. qualifier
func StripLayerPrefix(name string) string {
	for _, p := range layerPrefixes {
		if strings.HasPrefix(name, p) {
			return name[len(p):]
		}
	}
	return name
}

// EntityFromTable derives the business entity name of a physical table:
// "bronze.loan_balances_raw" -> "loan", "silver.customer_master" -> "customer".
// Marketing tables keep their compound name ("mktg_customer_journeys").
// ok is false when nothing is left after stripping.
func EntityFromTable(tableName string, rules Rules) (string, bool) {
	name := StripLayerPrefix(tableName)
	name = stripSuffix(name, rules.EntitySuffixes)
	name = strings.TrimPrefix(name, "fact_")

	if strings.HasPrefix(name, "mktg_") {
		return name, true
	}

	first, _, _ := strings.Cut(name, "_")
	if first == "" {
		return "", false
	}
	return first, true
}

// stripSuffix removes at most one suffix, matched case-insensitively
func stripSuffix(name string, suffixes []string) string {
	for _, s := range suffixes {
		if s != "" && len(name) >= len(s) && strings.EqualFold(name[len(name)-len(s):], s) {
			return name[:len(name)-len(s)]
		}
	}
	return name
}
