package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// KeyFields returns every candidate key field of the table:
// all column names, the key_fields list, or all schema field names.
func KeyFields(t TableDescriptor) []string {
	switch t.Form {
	case FormColumns:
		names := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			names = append(names, c.Name)
		}
		return names
	case FormKeyFields:
		return append([]string(nil), t.KeyFields...)
	case FormSchema:
		names := make([]string, 0, len(t.Schema))
		for _, f := range t.Schema {
			names = append(names, f.Name)
		}
		return names
	default:
		return nil
	}
}

// ForeignKeyFields returns the fields that reference other tables.
// Schema-form tables carry no FK markers and always return nil.
func ForeignKeyFields(t TableDescriptor) []string {
	switch t.Form {
	case FormColumns:
		var fks []string
		for _, c := range t.Columns {
			if c.IsFK {
				fks = append(fks, c.Name)
			}
		}
		return fks
	case FormKeyFields:
		if len(t.KeyFields) < 2 {
			return nil
		}
		return append([]string(nil), t.KeyFields[1:]...)
	default:
		return nil
	}
}

// PrimaryKeyField returns the primary key field, or "" with ok=false when
// the table has none.
func PrimaryKeyField(t TableDescriptor) (string, bool) {
	switch t.Form {
	case FormColumns:
		for _, c := range t.Columns {
			if c.IsPK {
				return c.Name, true
			}
		}
		return "", false
	case FormKeyFields:
		if len(t.KeyFields) == 0 {
			return "", false
		}
		return t.KeyFields[0], true
	default:
		return "", false
	}
}

// Tables returns every table of the domain, bronze then silver then
// gold dimensions then gold facts.
func (d *Domain) Tables() []TableDescriptor {
	var all []TableDescriptor
	all = append(all, d.Bronze...)
	all = append(all, d.Silver...)
	if d.Gold != nil {
		all = append(all, d.Gold.Dimensions...)
		all = append(all, d.Gold.Facts...)
	}
	return all
}

// Validate checks structural problems the inference engine cannot repair:
// empty domain ids, empty table names and duplicate names within a layer.
func (c *Catalog) Validate() error {
	var errs []error
	seenDomains := make(map[string]bool)
	for _, d := range c.Domains {
		if d.ID == "" {
			errs = append(errs, errors.New("domain with empty id"))
			continue
		}
		if err := CheckDomainID(d.ID); err != nil {
			errs = append(errs, err)
		}
		if seenDomains[d.ID] {
			errs = append(errs, fmt.Errorf("duplicate domain %q", d.ID))
		}
		seenDomains[d.ID] = true

		errs = append(errs, validateLayer(d.ID, LayerBronze, d.Bronze)...)
		errs = append(errs, validateLayer(d.ID, LayerSilver, d.Silver)...)
		if d.Gold != nil {
			errs = append(errs, validateLayer(d.ID, LayerDimension, d.Gold.Dimensions)...)
			errs = append(errs, validateLayer(d.ID, LayerFact, d.Gold.Facts)...)
		}
	}
	return errors.Join(errs...)
}

// CheckDomainID rejects ids that cannot name a single file in an output
// directory
func CheckDomainID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("domain id %q is not a valid file name", id)
	}
	return nil
}

func validateLayer(domainID string, layer Layer, tables []TableDescriptor) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, t := range tables {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("domain %s: %s table #%d has no name", domainID, layer, i))
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("domain %s: duplicate %s table %q", domainID, layer, t.Name))
		}
		seen[t.Name] = true
	}
	return errs
}
