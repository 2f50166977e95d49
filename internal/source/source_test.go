package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdinfer/internal/catalog"
)

func sampleCatalog() *catalog.Catalog {
	return &catalog.Catalog{Domains: []catalog.Domain{
		{
			ID:       "loans",
			Name:     "Lending",
			Priority: "P0",
			Entities: []string{"Customer", "Loan"},
			Bronze: []catalog.TableDescriptor{
				catalog.KeyFieldsTable("bronze.loan_master_raw", "loan_id", "customer_id"),
				catalog.SchemaTable("bronze.loan_payments_raw",
					catalog.SchemaField{Name: "payment_id", Type: "BIGINT PRIMARY KEY"},
					catalog.SchemaField{Name: "loan_id", Type: "BIGINT"},
					catalog.SchemaField{Name: "amount", Type: "DECIMAL(18,2)"},
				),
				{Name: "bronze.collections_feed", Description: "daily drop"},
			},
			Silver: []catalog.TableDescriptor{
				catalog.ColumnsTable("silver.loan_master",
					catalog.Column{Name: "loan_id", Type: "BIGINT", IsPK: true},
					catalog.Column{Name: "customer_id", Type: "BIGINT", IsFK: true},
				),
				catalog.NewTable("silver.loan_disbursements", nil, []string{"disbursement_id"}, []catalog.SchemaField{
					{Name: "disbursement_key", Type: "BIGINT PRIMARY KEY"},
					{Name: "disbursement_id", Type: "VARCHAR(50)"},
					{Name: "loan_key", Type: "BIGINT"},
				}),
			},
			Gold: &catalog.GoldLayer{
				Dimensions: []catalog.TableDescriptor{{Name: "gold.dim_date", Grain: "one row per day"}},
				Facts:      []catalog.TableDescriptor{{Name: "gold.fact_loan_balance", Measures: []string{"balance", "arrears"}}},
			},
		},
		{
			ID:     "ops",
			Name:   "Operations",
			Bronze: []catalog.TableDescriptor{},
		},
	}}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		location string
		wantKind Kind
		wantConn string
	}{
		{"postgres://u:p@localhost/erd", KindPostgres, "postgres://u:p@localhost/erd"},
		{"postgresql://u:p@localhost/erd", KindPostgres, "postgresql://u:p@localhost/erd"},
		{"mysql://u:p@tcp(localhost:3306)/erd", KindMySQL, "u:p@tcp(localhost:3306)/erd"},
		{"sqlite://data/catalog.db", KindSQLite, "data/catalog.db"},
		{"catalog.yaml", KindFile, "catalog.yaml"},
		{"conf/catalog.YML", KindFile, "conf/catalog.YML"},
		{"catalog.json", KindFile, "catalog.json"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			kind, conn, err := ParseLocation(tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantConn, conn)
		})
	}
}

func TestParseLocationErrors(t *testing.T) {
	_, _, err := ParseLocation("")
	assert.Error(t, err)

	_, _, err = ParseLocation("mongodb://localhost/erd")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, _, err = ParseLocation("catalog.toml")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestOpenStoreRejectsReadOnlySources(t *testing.T) {
	_, err := OpenStore(context.Background(), "catalog.yaml")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = OpenStore(context.Background(), "postgres://localhost/erd")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestSelect(t *testing.T) {
	c := sampleCatalog()

	all, err := Select(c, nil)
	require.NoError(t, err)
	assert.Same(t, c, all)

	got, err := Select(c, []string{"ops", "loans"})
	require.NoError(t, err)
	require.Len(t, got.Domains, 2)
	assert.Equal(t, "ops", got.Domains[0].ID)
	assert.Equal(t, "loans", got.Domains[1].ID)

	_, err = Select(c, []string{"loans", "cards", "fx"})
	assert.ErrorIs(t, err, ErrDomainNotFound)
	assert.ErrorContains(t, err, "cards")
	assert.ErrorContains(t, err, "fx")
}
