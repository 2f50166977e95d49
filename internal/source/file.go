package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/erdinfer/internal/catalog"
)

// The file layout mirrors catalog.Domain but keeps schema as a raw node so
// column order survives decoding. JSON files decode through the same path.
type fileCatalog struct {
	Domains []fileDomain `yaml:"domains"`
}

type fileDomain struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Priority string      `yaml:"priority"`
	Entities []string    `yaml:"entities"`
	Bronze   []fileTable `yaml:"bronze"`
	Silver   []fileTable `yaml:"silver"`
	Gold     *fileGold   `yaml:"gold"`
}

type fileGold struct {
	Dimensions []fileTable `yaml:"dimensions"`
	Facts      []fileTable `yaml:"facts"`
}

type fileTable struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Grain       string           `yaml:"grain"`
	Measures    []string         `yaml:"measures"`
	Columns     []catalog.Column `yaml:"columns"`
	KeyFields   []string         `yaml:"key_fields"`
	Schema      yaml.Node        `yaml:"schema"`
}

// LoadFile reads a YAML or JSON catalog file
func LoadFile(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

// Decode parses catalog YAML. JSON input is accepted as YAML.
func Decode(data []byte) (*catalog.Catalog, error) {
	var raw fileCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	c := &catalog.Catalog{Domains: make([]catalog.Domain, 0, len(raw.Domains))}
	for _, fd := range raw.Domains {
		d := catalog.Domain{
			ID:       fd.ID,
			Name:     fd.Name,
			Priority: fd.Priority,
			Entities: fd.Entities,
		}

		var err error
		if d.Bronze, err = convertTables(fd.Bronze); err != nil {
			return nil, fmt.Errorf("domain %s: %w", fd.ID, err)
		}
		if d.Silver, err = convertTables(fd.Silver); err != nil {
			return nil, fmt.Errorf("domain %s: %w", fd.ID, err)
		}
		if fd.Gold != nil {
			d.Gold = &catalog.GoldLayer{}
			if d.Gold.Dimensions, err = convertTables(fd.Gold.Dimensions); err != nil {
				return nil, fmt.Errorf("domain %s: %w", fd.ID, err)
			}
			if d.Gold.Facts, err = convertTables(fd.Gold.Facts); err != nil {
				return nil, fmt.Errorf("domain %s: %w", fd.ID, err)
			}
		}

		c.Domains = append(c.Domains, d)
	}
	return c, nil
}

// convertTables keeps nil as nil so undefined layers stay undefined
func convertTables(raw []fileTable) ([]catalog.TableDescriptor, error) {
	if raw == nil {
		return nil, nil
	}

	tables := make([]catalog.TableDescriptor, 0, len(raw))
	for _, ft := range raw {
		schema, err := decodeSchema(&ft.Schema)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", ft.Name, err)
		}
		t := catalog.NewTable(ft.Name, ft.Columns, ft.KeyFields, schema)
		t.Description = ft.Description
		t.Grain = ft.Grain
		t.Measures = ft.Measures
		tables = append(tables, t)
	}
	return tables, nil
}

// decodeSchema reads a column -> type mapping in document order. An absent
// or null schema yields nil; an empty mapping yields an empty slice.
func decodeSchema(n *yaml.Node) ([]catalog.SchemaField, error) {
	switch {
	case n.Kind == 0:
		return nil, nil
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil, nil
	case n.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("schema must be a mapping of column to type (line %d)", n.Line)
	}

	fields := make([]catalog.SchemaField, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("schema column %s: type must be a string (line %d)", key.Value, value.Line)
		}
		typ := value.Value
		if value.Tag == "!!null" {
			typ = ""
		}
		fields = append(fields, catalog.SchemaField{Name: key.Value, Type: typ})
	}
	return fields, nil
}
