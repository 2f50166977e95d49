// Package source loads catalogs from YAML/JSON files and from relational
// stores, and writes catalogs into SQLite or MySQL stores.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
)

var (
	// ErrUnsupportedSource is returned for locations no loader understands
	ErrUnsupportedSource = errors.New("unsupported catalog source")
	// ErrDomainNotFound is returned when a requested domain id is missing
	ErrDomainNotFound = errors.New("domain not found")
)

// Kind identifies the backend behind a catalog location
type Kind string

const (
	KindFile     Kind = "file"
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindSQLite   Kind = "sqlite"
)

// ParseLocation detects the backend and returns the connection string or
// path the backend expects
func ParseLocation(location string) (Kind, string, error) {
	if location == "" {
		return "", "", fmt.Errorf("catalog location is required")
	}

	if strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://") {
		return KindPostgres, location, nil
	}

	if strings.HasPrefix(location, "mysql://") {
		// The MySQL driver takes a bare DSN
		return KindMySQL, strings.TrimPrefix(location, "mysql://"), nil
	}

	if strings.HasPrefix(location, "sqlite://") {
		return KindSQLite, strings.TrimPrefix(location, "sqlite://"), nil
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".yaml", ".yml", ".json":
		return KindFile, location, nil
	}

	return "", "", fmt.Errorf("%w: %s (must start with postgres://, mysql:// or sqlite://, or be a .yaml, .yml or .json file)",
		ErrUnsupportedSource, location)
}

// Open loads the catalog at location
func Open(ctx context.Context, location string) (*catalog.Catalog, error) {
	kind, conn, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFile:
		return LoadFile(conn)
	case KindPostgres:
		return loadPostgres(ctx, conn)
	case KindSQLite:
		client, err := NewSQLiteClient(ctx, conn, false)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
		store := NewSQLStore(client.GetDB())
		defer func() { _ = store.Close() }()
		return store.Load(ctx)
	case KindMySQL:
		store, err := OpenStore(ctx, location)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		return store.Load(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, kind)
	}
}

func loadPostgres(ctx context.Context, connStr string) (*catalog.Catalog, error) {
	client, err := NewPostgresClient(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer func() { _ = client.Close(ctx) }()

	return NewPostgresLoader(client).Load(ctx)
}

// OpenStore opens a writable store. Only sqlite:// and mysql:// locations
// can be written.
func OpenStore(ctx context.Context, location string) (*SQLStore, error) {
	kind, conn, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSQLite:
		client, err := NewSQLiteClient(ctx, conn, true)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
		return NewSQLStore(client.GetDB()), nil
	case KindMySQL:
		client, err := NewMySQLClient(ctx, conn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		return NewSQLStore(client.GetDB()), nil
	default:
		return nil, fmt.Errorf("%w: %s stores are read-only", ErrUnsupportedSource, kind)
	}
}

// Select returns a catalog holding only the requested domains, in the
// order they were requested. An empty id list selects every domain.
func Select(c *catalog.Catalog, ids []string) (*catalog.Catalog, error) {
	if len(ids) == 0 {
		return c, nil
	}

	out := &catalog.Catalog{Domains: make([]catalog.Domain, 0, len(ids))}
	var missing []error
	for _, id := range ids {
		d, ok := c.Domain(id)
		if !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrDomainNotFound, id))
			continue
		}
		out.Domains = append(out.Domains, *d)
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}
	return out, nil
}
