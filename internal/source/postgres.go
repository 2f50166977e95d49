package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/erdinfer/internal/catalog"
)

// PostgresClient manages a read-only connection to a PostgreSQL catalog store
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient connects with every transaction read-only,
// since PostgreSQL stores are never written
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	cfg.RuntimeParams["application_name"] = "erdinfer"
	cfg.RuntimeParams["default_transaction_read_only"] = "on"

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// PostgresLoader reads a catalog from erd_* tables in PostgreSQL
type PostgresLoader struct {
	client *PostgresClient
}

// NewPostgresLoader creates a loader on an open client
func NewPostgresLoader(client *PostgresClient) *PostgresLoader {
	return &PostgresLoader{client: client}
}

// Load reads every stored domain
func (l *PostgresLoader) Load(ctx context.Context) (*catalog.Catalog, error) {
	return loadCatalog(ctx, func(ctx context.Context, query string) (rows, func(), error) {
		r, err := l.client.GetConnection().Query(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	})
}
