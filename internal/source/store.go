package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
)

// The DDL is shared by SQLite and MySQL; PostgreSQL accepts it as well.
var storeDDL = []string{
	`CREATE TABLE IF NOT EXISTS erd_domains (
		id VARCHAR(191) NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		priority VARCHAR(64) NOT NULL,
		entities TEXT NOT NULL,
		layers VARCHAR(64) NOT NULL,
		position INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS erd_tables (
		domain_id VARCHAR(191) NOT NULL,
		layer VARCHAR(16) NOT NULL,
		name VARCHAR(191) NOT NULL,
		form VARCHAR(16) NOT NULL,
		forms VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		grain TEXT NOT NULL,
		measures TEXT NOT NULL,
		position INT NOT NULL,
		PRIMARY KEY (domain_id, layer, name)
	)`,
	`CREATE TABLE IF NOT EXISTS erd_fields (
		domain_id VARCHAR(191) NOT NULL,
		layer VARCHAR(16) NOT NULL,
		table_name VARCHAR(191) NOT NULL,
		form VARCHAR(16) NOT NULL,
		name VARCHAR(191) NOT NULL,
		type TEXT NOT NULL,
		is_pk BOOLEAN NOT NULL,
		is_fk BOOLEAN NOT NULL,
		position INT NOT NULL
	)`,
}

const (
	selectDomains = `SELECT id, name, priority, entities, layers FROM erd_domains ORDER BY position, id`
	selectTables  = `SELECT domain_id, layer, name, form, forms, description, grain, measures FROM erd_tables ORDER BY domain_id, position`
	selectFields  = `SELECT domain_id, layer, table_name, form, name, type, is_pk, is_fk FROM erd_fields ORDER BY domain_id, layer, table_name, form, position`

	selectNextPosition   = `SELECT COALESCE(MAX(position), -1) + 1 FROM erd_domains`
	selectDomainPosition = `SELECT position FROM erd_domains WHERE id = ?`
)

// SQLStore persists catalogs in a database/sql database using ? placeholders
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open SQLite or MySQL connection
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Close closes the underlying connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Init creates the store tables when they do not exist
func (s *SQLStore) Init(ctx context.Context) error {
	for _, ddl := range storeDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create store tables: %w", err)
		}
	}
	return nil
}

// Save replaces the stored rows of every domain in c. A replaced domain keeps
// its place in the stored order; new domains are appended after every stored
// one in catalog order.
func (s *SQLStore) Save(ctx context.Context, c *catalog.Catalog) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx, selectNextPosition).Scan(&next); err != nil {
		return fmt.Errorf("failed to read domain positions: %w", err)
	}

	for _, d := range c.Domains {
		position, err := domainPosition(ctx, tx, d.ID)
		if err != nil {
			return fmt.Errorf("failed to read position of domain %s: %w", d.ID, err)
		}
		if position < 0 {
			position = next
			next++
		}
		if err := saveDomain(ctx, tx, position, d); err != nil {
			return fmt.Errorf("failed to save domain %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// domainPosition returns the stored position of id, or -1 when id is new
func domainPosition(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	var position int
	err := tx.QueryRowContext(ctx, selectDomainPosition, id).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return position, nil
}

func saveDomain(ctx context.Context, tx *sql.Tx, position int, d catalog.Domain) error {
	for _, table := range []string{"erd_fields", "erd_tables", "erd_domains"} {
		col := "domain_id"
		if table == "erd_domains" {
			col = "id"
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+col+" = ?", d.ID); err != nil {
			return err
		}
	}

	entities, err := encodeList(d.Entities)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO erd_domains (id, name, priority, entities, layers, position) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Priority, entities, definedLayers(d), position,
	); err != nil {
		return err
	}

	layers := []layerTables{
		{catalog.LayerBronze, d.Bronze},
		{catalog.LayerSilver, d.Silver},
	}
	if d.Gold != nil {
		layers = append(layers,
			layerTables{catalog.LayerDimension, d.Gold.Dimensions},
			layerTables{catalog.LayerFact, d.Gold.Facts},
		)
	}

	for _, l := range layers {
		for i, t := range l.tables {
			if err := saveTable(ctx, tx, d.ID, l.layer, i, t); err != nil {
				return fmt.Errorf("table %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

type layerTables struct {
	layer  catalog.Layer
	tables []catalog.TableDescriptor
}

func saveTable(ctx context.Context, tx *sql.Tx, domainID string, layer catalog.Layer, position int, t catalog.TableDescriptor) error {
	measures, err := encodeList(t.Measures)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO erd_tables (domain_id, layer, name, form, forms, description, grain, measures, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		domainID, string(layer), t.Name, t.Form.String(), encodeForms(t.Forms()), t.Description, t.Grain, measures, position,
	); err != nil {
		return err
	}

	for _, form := range t.Forms() {
		for i, f := range tableFields(t, form) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO erd_fields (domain_id, layer, table_name, form, name, type, is_pk, is_fk, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				domainID, string(layer), t.Name, form.String(), f.Name, f.Type, f.IsPK, f.IsFK, i,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeForms(forms []catalog.Form) string {
	names := make([]string, 0, len(forms))
	for _, f := range forms {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}

func decodeForms(s string) ([]catalog.Form, error) {
	if s == "" {
		return nil, nil
	}
	var forms []catalog.Form
	for _, name := range strings.Split(s, ",") {
		f, err := catalog.ParseForm(name)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, nil
}

// tableFields flattens one shape of the table into field rows
func tableFields(t catalog.TableDescriptor, form catalog.Form) []catalog.Column {
	switch form {
	case catalog.FormColumns:
		return t.Columns
	case catalog.FormKeyFields:
		cols := make([]catalog.Column, 0, len(t.KeyFields))
		for _, k := range t.KeyFields {
			cols = append(cols, catalog.Column{Name: k})
		}
		return cols
	case catalog.FormSchema:
		cols := make([]catalog.Column, 0, len(t.Schema))
		for _, f := range t.Schema {
			cols = append(cols, catalog.Column{Name: f.Name, Type: f.Type})
		}
		return cols
	default:
		return nil
	}
}

func definedLayers(d catalog.Domain) string {
	var layers []string
	if d.Bronze != nil {
		layers = append(layers, string(catalog.LayerBronze))
	}
	if d.Silver != nil {
		layers = append(layers, string(catalog.LayerSilver))
	}
	if d.Gold != nil {
		layers = append(layers, "gold")
	}
	return strings.Join(layers, ",")
}

func encodeList(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// Load reads every stored domain
func (s *SQLStore) Load(ctx context.Context) (*catalog.Catalog, error) {
	return loadCatalog(ctx, func(ctx context.Context, query string) (rows, func(), error) {
		r, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	})
}

// rows is the subset of *sql.Rows and pgx.Rows the loader needs
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type queryFunc func(ctx context.Context, query string) (rows, func(), error)

type tableKey struct {
	domainID string
	layer    catalog.Layer
	name     string
}

type fieldKey struct {
	tableKey
	form catalog.Form
}

func loadCatalog(ctx context.Context, query queryFunc) (*catalog.Catalog, error) {
	c := &catalog.Catalog{}
	index := make(map[string]int)

	err := each(ctx, query, selectDomains, func(r rows) error {
		var d catalog.Domain
		var entities, layers string
		if err := r.Scan(&d.ID, &d.Name, &d.Priority, &entities, &layers); err != nil {
			return err
		}
		var err error
		if d.Entities, err = decodeList(entities); err != nil {
			return fmt.Errorf("domain %s: invalid entities: %w", d.ID, err)
		}
		defined := strings.Split(layers, ",")
		if slices.Contains(defined, string(catalog.LayerBronze)) {
			d.Bronze = []catalog.TableDescriptor{}
		}
		if slices.Contains(defined, string(catalog.LayerSilver)) {
			d.Silver = []catalog.TableDescriptor{}
		}
		if slices.Contains(defined, "gold") {
			d.Gold = &catalog.GoldLayer{}
		}
		index[d.ID] = len(c.Domains)
		c.Domains = append(c.Domains, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load domains: %w", err)
	}

	type storedTable struct {
		key   tableKey
		table catalog.TableDescriptor
		forms []catalog.Form
	}
	var tables []storedTable
	err = each(ctx, query, selectTables, func(r rows) error {
		var st storedTable
		var layer, form, forms, measures string
		if err := r.Scan(&st.key.domainID, &layer, &st.table.Name, &form, &forms, &st.table.Description, &st.table.Grain, &measures); err != nil {
			return err
		}
		var err error
		if st.key.layer, err = catalog.ParseLayer(layer); err != nil {
			return fmt.Errorf("table %s: %w", st.table.Name, err)
		}
		if st.table.Form, err = catalog.ParseForm(form); err != nil {
			return fmt.Errorf("table %s: %w", st.table.Name, err)
		}
		if st.forms, err = decodeForms(forms); err != nil {
			return fmt.Errorf("table %s: %w", st.table.Name, err)
		}
		if st.table.Measures, err = decodeList(measures); err != nil {
			return fmt.Errorf("table %s: invalid measures: %w", st.table.Name, err)
		}
		st.key.name = st.table.Name
		tables = append(tables, st)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	fields := make(map[fieldKey][]catalog.Column)
	err = each(ctx, query, selectFields, func(r rows) error {
		var k fieldKey
		var layer, form string
		var col catalog.Column
		if err := r.Scan(&k.domainID, &layer, &k.name, &form, &col.Name, &col.Type, &col.IsPK, &col.IsFK); err != nil {
			return err
		}
		k.layer = catalog.Layer(layer)
		f, err := catalog.ParseForm(form)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", k.name, col.Name, err)
		}
		k.form = f
		fields[k] = append(fields[k], col)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load fields: %w", err)
	}

	for _, st := range tables {
		i, ok := index[st.key.domainID]
		if !ok {
			return nil, fmt.Errorf("table %s references unknown domain %s", st.table.Name, st.key.domainID)
		}
		t := st.table
		for _, form := range st.forms {
			t = withFields(t, form, fields[fieldKey{tableKey: st.key, form: form}])
		}
		d := &c.Domains[i]
		switch st.key.layer {
		case catalog.LayerBronze:
			d.Bronze = append(d.Bronze, t)
		case catalog.LayerSilver:
			d.Silver = append(d.Silver, t)
		case catalog.LayerDimension, catalog.LayerFact:
			if d.Gold == nil {
				d.Gold = &catalog.GoldLayer{}
			}
			if st.key.layer == catalog.LayerDimension {
				d.Gold.Dimensions = append(d.Gold.Dimensions, t)
			} else {
				d.Gold.Facts = append(d.Gold.Facts, t)
			}
		}
	}

	return c, nil
}

// withFields restores one shape of the table from its field rows
func withFields(t catalog.TableDescriptor, form catalog.Form, cols []catalog.Column) catalog.TableDescriptor {
	switch form {
	case catalog.FormColumns:
		t.Columns = cols
	case catalog.FormKeyFields:
		for _, c := range cols {
			t.KeyFields = append(t.KeyFields, c.Name)
		}
	case catalog.FormSchema:
		t.Schema = make([]catalog.SchemaField, 0, len(cols))
		for _, c := range cols {
			t.Schema = append(t.Schema, catalog.SchemaField{Name: c.Name, Type: c.Type})
		}
	}
	return t
}

func each(ctx context.Context, query queryFunc, q string, fn func(rows) error) error {
	r, closeRows, err := query(ctx, q)
	if err != nil {
		return err
	}
	defer closeRows()

	for r.Next() {
		if err := fn(r); err != nil {
			return err
		}
	}
	return r.Err()
}
