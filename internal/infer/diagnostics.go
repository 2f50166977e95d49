package infer

import "github.com/tordrt/erdinfer/internal/catalog"

// DiagnosticKind classifies a table the FK linker cannot fully use
type DiagnosticKind string

const (
	// NoKeyData means the table declares no columns, key fields or schema
	NoKeyData DiagnosticKind = "no_key_data"
	// SchemaWithoutFK means the table is schema-form, which has no FK markers
	SchemaWithoutFK DiagnosticKind = "schema_without_fk"
)

// Diagnostic reports a coverage gap for one table
type Diagnostic struct {
	Table   string         `json:"table"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

// Diagnose lists the tables whose relationships cannot be inferred from
// their own key data, in input order
func Diagnose(tables []catalog.TableDescriptor) []Diagnostic {
	var out []Diagnostic
	for _, t := range tables {
		switch t.Form {
		case catalog.FormNone:
			out = append(out, Diagnostic{
				Table:   t.Name,
				Kind:    NoKeyData,
				Message: "no columns, key_fields or schema declared",
			})
		case catalog.FormSchema:
			out = append(out, Diagnostic{
				Table:   t.Name,
				Kind:    SchemaWithoutFK,
				Message: "schema form carries no foreign key markers",
			})
		}
	}
	return out
}

// Dedupe drops relationships whose (from, to) pair was already seen,
// keeping the first occurrence
func Dedupe(rels []catalog.Relationship) []catalog.Relationship {
	seen := make(edgeSet)
	out := make([]catalog.Relationship, 0, len(rels))
	for _, r := range rels {
		if seen.add(r.From, r.To) {
			out = append(out, r)
		}
	}
	return out
}
