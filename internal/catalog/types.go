package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownLayer is returned when a layer name cannot be parsed
var ErrUnknownLayer = errors.New("unknown layer")

// Form identifies which descriptor shape is authoritative for a table
type Form int

const (
	// FormNone means the descriptor carries no column data at all
	FormNone Form = iota
	// FormColumns is the enriched shape: columns with PK/FK flags
	FormColumns
	// FormKeyFields is the positional shape: index 0 is the PK, the rest are FKs
	FormKeyFields
	// FormSchema is the column -> type string shape with no key semantics
	FormSchema
)

func (f Form) String() string {
	switch f {
	case FormColumns:
		return "columns"
	case FormKeyFields:
		return "key_fields"
	case FormSchema:
		return "schema"
	default:
		return "none"
	}
}

// ParseForm parses the string produced by Form.String
func ParseForm(s string) (Form, error) {
	switch s {
	case "columns":
		return FormColumns, nil
	case "key_fields":
		return FormKeyFields, nil
	case "schema":
		return FormSchema, nil
	case "none", "":
		return FormNone, nil
	default:
		return FormNone, fmt.Errorf("unknown table form %q", s)
	}
}

// Layer is a medallion tier (or gold role) a table belongs to
type Layer string

const (
	LayerBronze    Layer = "bronze"
	LayerSilver    Layer = "silver"
	LayerDimension Layer = "dimension"
	LayerFact      Layer = "fact"
)

// ParseLayer validates a stored layer name
func ParseLayer(s string) (Layer, error) {
	switch l := Layer(s); l {
	case LayerBronze, LayerSilver, LayerDimension, LayerFact:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
	}
}

// Column is a named column with optional key markers
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	IsPK bool   `json:"pk,omitempty" yaml:"pk,omitempty"`
	IsFK bool   `json:"fk,omitempty" yaml:"fk,omitempty"`
}

// SchemaField is one entry of a schema-form table, kept in declaration order
type SchemaField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableDescriptor describes one catalog table. Form selects which of
// Columns, KeyFields or Schema drives key extraction; the other populated
// shapes are kept for column detection.
type TableDescriptor struct {
	Name        string        `json:"name"`
	Form        Form          `json:"-"`
	Columns     []Column      `json:"columns,omitempty"`
	KeyFields   []string      `json:"key_fields,omitempty"`
	Schema      []SchemaField `json:"schema,omitempty"`
	Description string        `json:"description,omitempty"`
	Grain       string        `json:"grain,omitempty"`
	Measures    []string      `json:"measures,omitempty"`
}

// NewTable builds a descriptor holding every populated shape and resolves
// its form in the order columns, key fields, schema. A non-nil empty schema
// still counts as populated.
func NewTable(name string, columns []Column, keyFields []string, schema []SchemaField) TableDescriptor {
	t := TableDescriptor{Name: name, Schema: schema}
	if len(columns) > 0 {
		t.Columns = columns
	}
	if len(keyFields) > 0 {
		t.KeyFields = keyFields
	}

	switch {
	case t.Columns != nil:
		t.Form = FormColumns
	case t.KeyFields != nil:
		t.Form = FormKeyFields
	case t.Schema != nil:
		t.Form = FormSchema
	}
	return t
}

// Forms lists the populated shapes in columns, key fields, schema order
func (t TableDescriptor) Forms() []Form {
	var forms []Form
	if len(t.Columns) > 0 {
		forms = append(forms, FormColumns)
	}
	if len(t.KeyFields) > 0 {
		forms = append(forms, FormKeyFields)
	}
	if t.Schema != nil {
		forms = append(forms, FormSchema)
	}
	return forms
}

// ColumnsTable is shorthand for a columns-form descriptor
func ColumnsTable(name string, columns ...Column) TableDescriptor {
	return NewTable(name, columns, nil, nil)
}

// KeyFieldsTable is shorthand for a key_fields-form descriptor
func KeyFieldsTable(name string, keyFields ...string) TableDescriptor {
	return NewTable(name, nil, keyFields, nil)
}

// SchemaTable is shorthand for a schema-form descriptor
func SchemaTable(name string, fields ...SchemaField) TableDescriptor {
	if fields == nil {
		fields = []SchemaField{}
	}
	return NewTable(name, nil, nil, fields)
}

// GoldLayer holds the dimensional model of a domain
type GoldLayer struct {
	Dimensions []TableDescriptor `json:"dimensions,omitempty"`
	Facts      []TableDescriptor `json:"facts,omitempty"`
}

// Domain is one business domain of the catalog. A nil layer means the
// domain does not define it at all.
type Domain struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Priority string            `json:"priority,omitempty"`
	Entities []string          `json:"entities,omitempty"`
	Bronze   []TableDescriptor `json:"bronze,omitempty"`
	Silver   []TableDescriptor `json:"silver,omitempty"`
	Gold     *GoldLayer        `json:"gold,omitempty"`
}

// Catalog is a snapshot of every domain
type Catalog struct {
	Domains []Domain `json:"domains"`
}

// Domain returns the domain with the given id
func (c *Catalog) Domain(id string) (*Domain, bool) {
	for i := range c.Domains {
		if c.Domains[i].ID == id {
			return &c.Domains[i], true
		}
	}
	return nil, false
}

// Relationship is an inferred edge between two physical tables
type Relationship struct {
	From       string `json:"from"`
	To         string `json:"to"`
	FromColumn string `json:"fromColumn,omitempty"`
	ToColumn   string `json:"toColumn,omitempty"`
	Rule       string `json:"rule,omitempty"`
}

// Cardinality of a logical relationship
type Cardinality string

const (
	OneToOne   Cardinality = "1:1"
	OneToMany  Cardinality = "1:M"
	ManyToOne  Cardinality = "M:1"
	ManyToMany Cardinality = "M:M"
)

// LogicalRelationship is a coarse business relationship between entity names
type LogicalRelationship struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Type  Cardinality `json:"type"`
	Label string      `json:"label,omitempty"`
}
