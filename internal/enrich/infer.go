package enrich

import (
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
)

type domainKeys struct {
	keyword string
	fks     []string
}

// Checked in order; the first keyword found in the table name contributes its FKs.
var commonForeignKeys = []domainKeys{
	{keyword: "loan", fks: []string{"loan_id", "borrower_id", "customer_id"}},
	{keyword: "customer", fks: []string{"customer_id"}},
	{keyword: "account", fks: []string{"account_id", "customer_id"}},
	{keyword: "card", fks: []string{"card_id", "customer_id", "account_id"}},
	{keyword: "transaction", fks: []string{"transaction_id", "account_id", "customer_id"}},
	{keyword: "payment", fks: []string{"payment_id", "account_id"}},
	{keyword: "deposit", fks: []string{"account_id", "customer_id"}},
}

func isGold(layer catalog.Layer) bool {
	return layer == catalog.LayerDimension || layer == catalog.LayerFact
}

// InferColumns synthesizes key columns for a silver or gold table from its
// name alone. Bronze tables get nothing.
func InferColumns(tableName string, layer catalog.Layer) []catalog.Column {
	if layer != catalog.LayerSilver && !isGold(layer) {
		return nil
	}

	name := strings.ToLower(tableName)
	name = strings.TrimPrefix(name, "silver.")
	name = strings.TrimPrefix(name, "gold.")

	var cols []catalog.Column
	switch {
	case strings.Contains(name, "_master") || strings.Contains(name, "_golden"):
		entity := stripFirst(name, "_master", "_golden")
		cols = append(cols, catalog.Column{Name: entity + "_id", Type: "BIGINT", IsPK: true})
	case strings.HasPrefix(name, "dim_"):
		cols = append(cols, catalog.Column{Name: strings.TrimPrefix(name, "dim_") + "_key", Type: "BIGINT", IsPK: true})
	case strings.HasPrefix(name, "fact_"):
		cols = append(cols, catalog.Column{Name: "fact_key", Type: "BIGINT", IsPK: true})
	default:
		cols = append(cols, catalog.Column{Name: "id", Type: "BIGINT", IsPK: true})
	}
	pk := cols[0].Name

	for _, d := range commonForeignKeys {
		if !strings.Contains(name, d.keyword) {
			continue
		}
		for _, fk := range d.fks {
			if fk != pk {
				cols = append(cols, catalog.Column{Name: fk, Type: "BIGINT", IsFK: true})
			}
		}
		break
	}

	if layer == catalog.LayerSilver {
		cols = append(cols,
			catalog.Column{Name: "effective_from", Type: "TIMESTAMP"},
			catalog.Column{Name: "effective_to", Type: "TIMESTAMP"},
			catalog.Column{Name: "is_current", Type: "BOOLEAN"},
		)
	}

	if isGold(layer) && strings.HasPrefix(name, "fact_") {
		cols = append(cols,
			catalog.Column{Name: "date_key", Type: "INTEGER", IsFK: true},
			catalog.Column{Name: "customer_key", Type: "BIGINT", IsFK: true},
		)
	}

	return cols
}

// stripFirst removes the earliest occurrence of any of the markers
func stripFirst(s string, markers ...string) string {
	best := -1
	var marker string
	for _, m := range markers {
		if i := strings.Index(s, m); i >= 0 && (best < 0 || i < best) {
			best, marker = i, m
		}
	}
	if best < 0 {
		return s
	}
	return s[:best] + s[best+len(marker):]
}

// Enrich returns a columns-form copy of the table when key columns can be
// detected or, for silver and gold tables, inferred from the name. Fact
// measures are appended as DECIMAL columns to inferred fact columns.
// The table is returned unchanged when nothing can be derived.
func Enrich(t catalog.TableDescriptor, layer catalog.Layer) catalog.TableDescriptor {
	cols := DetectColumns(t)
	if len(cols) == 0 {
		cols = InferColumns(t.Name, layer)
		if layer == catalog.LayerFact {
			cols = appendMeasures(cols, t.Measures)
		}
	}
	if len(cols) == 0 {
		return t
	}

	out := t
	out.Form = catalog.FormColumns
	out.Columns = cols
	out.KeyFields = nil
	out.Schema = nil
	return out
}

func appendMeasures(cols []catalog.Column, measures []string) []catalog.Column {
	for _, m := range measures {
		exists := false
		for _, c := range cols {
			if c.Name == m {
				exists = true
				break
			}
		}
		if !exists {
			cols = append(cols, catalog.Column{Name: m, Type: "DECIMAL"})
		}
	}
	return cols
}

// EnrichAll applies Enrich to every table of one layer
func EnrichAll(tables []catalog.TableDescriptor, layer catalog.Layer) []catalog.TableDescriptor {
	out := make([]catalog.TableDescriptor, 0, len(tables))
	for _, t := range tables {
		out = append(out, Enrich(t, layer))
	}
	return out
}
