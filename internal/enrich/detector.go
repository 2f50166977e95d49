// Package enrich turns key_fields and schema descriptors into columns with
// PK/FK markers, and synthesizes plausible key columns for tables that
// declare nothing.
package enrich

import (
	"regexp"
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
)

var (
	nonFKExact    = []string{"id", "source_system"}
	nonFKPrefixes = []string{"created_", "updated_", "modified_", "deleted_", "ingestion_", "record_"}
	nonFKSuffixes = []string{
		"_date", "_timestamp", "_time", "_flag", "_status", "_type", "_code",
		"_name", "_text", "_amount", "_balance", "_rate", "_pct", "_percent",
	}

	fkExact = []string{
		"customer_id", "account_id", "loan_id", "borrower_id", "card_id",
		"merchant_id", "product_id", "branch_id", "channel_id",
	}
	fkSuffixes     = []string{"_customer_id", "_account_id", "_loan_id", "_card_id", "_product_id", "_key"}
	fkWrapPrefixes = []string{"source_", "parent_"}
)

var (
	constraintTokens = regexp.MustCompile(`(?i)PRIMARY KEY|FOREIGN KEY|UNIQUE|NOT NULL`)
	referencesClause = regexp.MustCompile(`(?i)REFERENCES.*`)
	varcharLength    = regexp.MustCompile(`(?i)VARCHAR\(\d+\)`)
	decimalPrecision = regexp.MustCompile(`(?i)DECIMAL\(.*?\)`)
	numericPrecision = regexp.MustCompile(`(?i)NUMERIC\(.*?\)`)
)

// IsPrimaryKey reports whether the field at index is the table's PK.
// An explicit PRIMARY KEY type wins; otherwise the first field is the PK.
func IsPrimaryKey(index int, typeDef string) bool {
	if strings.Contains(strings.ToUpper(typeDef), "PRIMARY KEY") {
		return true
	}
	return index == 0
}

// IsForeignKey reports whether a field looks like a reference to another
// table, from an explicit FOREIGN KEY/REFERENCES type or its name.
func IsForeignKey(name, typeDef string) bool {
	upper := strings.ToUpper(typeDef)
	if strings.Contains(upper, "FOREIGN KEY") || strings.Contains(upper, "REFERENCES") {
		return true
	}

	n := strings.ToLower(name)
	if matchesAny(n, nonFKExact, nonFKPrefixes, nonFKSuffixes) {
		return false
	}
	if matchesAny(n, fkExact, nil, fkSuffixes) {
		return true
	}
	for _, p := range fkWrapPrefixes {
		if len(n) >= len(p)+len("_id") && strings.HasPrefix(n, p) && strings.HasSuffix(n, "_id") {
			return true
		}
	}
	return false
}

func matchesAny(name string, exact, prefixes, suffixes []string) bool {
	for _, e := range exact {
		if name == e {
			return true
		}
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// CleanType strips constraint keywords and length/precision arguments:
// "VARCHAR(64) NOT NULL" -> "VARCHAR"
func CleanType(typeDef string) string {
	t := referencesClause.ReplaceAllString(typeDef, "")
	t = constraintTokens.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	t = varcharLength.ReplaceAllString(t, "VARCHAR")
	t = decimalPrecision.ReplaceAllString(t, "DECIMAL")
	t = numericPrecision.ReplaceAllString(t, "NUMERIC")
	return t
}

// DetectColumns derives columns with key markers from the richest shape
// the table carries: a schema first, then key fields, then declared
// columns, which are returned as is. A present but empty schema yields
// no columns.
func DetectColumns(t catalog.TableDescriptor) []catalog.Column {
	switch {
	case t.Schema != nil:
		cols := make([]catalog.Column, 0, len(t.Schema))
		for i, f := range t.Schema {
			pk := IsPrimaryKey(i, f.Type)
			cols = append(cols, catalog.Column{
				Name: f.Name,
				Type: CleanType(f.Type),
				IsPK: pk,
				IsFK: !pk && IsForeignKey(f.Name, f.Type),
			})
		}
		return cols
	case len(t.KeyFields) > 0:
		cols := make([]catalog.Column, 0, len(t.KeyFields))
		for i, name := range t.KeyFields {
			pk := IsPrimaryKey(i, "")
			cols = append(cols, catalog.Column{
				Name: name,
				IsPK: pk,
				IsFK: !pk && IsForeignKey(name, ""),
			})
		}
		return cols
	case len(t.Columns) > 0:
		return append([]catalog.Column(nil), t.Columns...)
	default:
		return nil
	}
}
