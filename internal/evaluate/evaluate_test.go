package evaluate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/infer"
	"github.com/tordrt/erdinfer/internal/testutil"
)

func customerDomain() catalog.Domain {
	return catalog.Domain{
		ID:       "customer",
		Name:     "Customer Core",
		Priority: "P1",
		Entities: []string{"Customer", "Account"},
		Bronze: []catalog.TableDescriptor{
			catalog.KeyFieldsTable("bronze.customer_accounts", "account_id", "customer_id"),
			catalog.KeyFieldsTable("bronze.customer_master", "customer_id"),
		},
		Silver: []catalog.TableDescriptor{
			{Name: "silver.customer_master", Description: "golden customer record"},
			{Name: "silver.account_master"},
			{Name: "silver.account_transactions"},
		},
		Gold: &catalog.GoldLayer{
			Dimensions: []catalog.TableDescriptor{
				{Name: "gold.dim_customer", Grain: "one row per customer"},
				{Name: "gold.dim_date"},
			},
			Facts: []catalog.TableDescriptor{
				{Name: "gold.fact_account_balance", Measures: []string{"balance_amount"}},
			},
		},
	}
}

func TestEvaluateDomain(t *testing.T) {
	m := EvaluateDomain(customerDomain(), DefaultOptions())

	assert.Equal(t, "customer", m.DomainID)
	assert.Equal(t, []catalog.LogicalRelationship{
		{From: "Customer", To: "Account", Type: catalog.OneToMany, Label: "owns"},
	}, m.Logical)
	assert.Empty(t, m.Issues)

	require.NotNil(t, m.Bronze)
	assert.Equal(t, 2, m.Bronze.TableCount)
	assert.Equal(t, 100, m.Bronze.Completeness)
	assert.Equal(t, []catalog.Relationship{{
		From:       "bronze.customer_accounts",
		To:         "bronze.customer_master",
		FromColumn: "customer_id",
		ToColumn:   "customer_id",
		Rule:       infer.RuleRegistryExact,
	}}, m.Bronze.Relationships)

	require.NotNil(t, m.Silver)
	assert.True(t, m.Silver.HasSchema, "description counts as silver schema")
	assert.Equal(t, 100, m.Silver.Completeness)
	silverEdges := make([][2]string, 0, len(m.Silver.Relationships))
	for _, r := range m.Silver.Relationships {
		silverEdges = append(silverEdges, [2]string{r.From, r.To})
	}
	assert.Equal(t, [][2]string{
		{"silver.account_master", "silver.customer_master"},
		{"silver.account_transactions", "silver.account_master"},
		{"silver.account_transactions", "silver.customer_master"},
	}, silverEdges)
	assert.Len(t, m.Silver.Diagnostics, 3)

	require.NotNil(t, m.Gold)
	assert.Equal(t, 2, m.Gold.DimensionCount)
	assert.Equal(t, 1, m.Gold.FactCount)
	assert.True(t, m.Gold.HasSchema)
	require.Len(t, m.Gold.Relationships, 2)
	assert.Equal(t, infer.RuleBusinessDimension, m.Gold.Relationships[0].Rule)
	assert.Equal(t, infer.RuleUniversalDimension, m.Gold.Relationships[1].Rule)
	assert.Len(t, m.Gold.Tables, 3)

	assert.Len(t, m.Relationships(), 6)
}

func TestEvaluateDomainWithoutEnrichment(t *testing.T) {
	m := EvaluateDomain(customerDomain(), Options{})

	require.Len(t, m.Silver.Relationships, 1)
	assert.Equal(t, "silver.account_transactions", m.Silver.Relationships[0].From)
	assert.Equal(t, "silver.account_master", m.Silver.Relationships[0].To)
	assert.Equal(t, infer.RulePattern, m.Silver.Relationships[0].Rule)
}

func TestEvaluateDomainSchemaBehindKeyFields(t *testing.T) {
	d := catalog.Domain{
		ID: "branch",
		Silver: []catalog.TableDescriptor{
			catalog.KeyFieldsTable("silver.branch_master", "branch_key"),
			catalog.NewTable("silver.atm_transactions", nil, []string{"atm_transaction_id"}, []catalog.SchemaField{
				{Name: "atm_transaction_key", Type: "BIGINT PRIMARY KEY"},
				{Name: "atm_transaction_id", Type: "VARCHAR(50)"},
				{Name: "branch_key", Type: "BIGINT"},
			}),
		},
	}

	m := EvaluateDomain(d, DefaultOptions())
	assert.Equal(t, []catalog.Relationship{{
		From:       "silver.atm_transactions",
		To:         "silver.branch_master",
		FromColumn: "branch_key",
		ToColumn:   "branch_key",
		Rule:       infer.RuleRegistryExact,
	}}, m.Silver.Relationships)

	m = EvaluateDomain(d, Options{})
	assert.Empty(t, m.Silver.Relationships, "key fields alone carry no FK")
}

func TestEvaluateDomainMissingLayers(t *testing.T) {
	m := EvaluateDomain(catalog.Domain{ID: "ops", Name: "Operations"}, DefaultOptions())

	assert.Nil(t, m.Bronze)
	assert.Nil(t, m.Silver)
	assert.Nil(t, m.Gold)
	assert.Empty(t, m.Layers())
	assert.Equal(t, []string{
		"Missing Bronze Layer definition",
		"Missing Silver Layer definition",
		"Missing Gold Layer definition",
	}, m.Issues)
	assert.Len(t, m.Recommendations, 3)
}

func TestEvaluateDomainCompleteness(t *testing.T) {
	d := catalog.Domain{
		ID:     "ops",
		Bronze: []catalog.TableDescriptor{{Name: "bronze.feed"}},
		Silver: []catalog.TableDescriptor{},
		Gold:   &catalog.GoldLayer{},
	}

	m := EvaluateDomain(d, DefaultOptions())

	assert.Equal(t, 50, m.Bronze.Completeness)
	assert.False(t, m.Bronze.HasSchema)
	assert.Equal(t, 0, m.Silver.Completeness)
	assert.Equal(t, 0, m.Gold.Completeness)
}

func TestEvaluateDomainCaps(t *testing.T) {
	var bronze []catalog.TableDescriptor
	for i := range 5 {
		bronze = append(bronze, catalog.KeyFieldsTable(fmt.Sprintf("bronze.feed_%d", i), "id"))
	}
	d := catalog.Domain{ID: "ops", Bronze: bronze}

	m := EvaluateDomain(d, Options{MaxTables: 2})
	assert.Equal(t, 5, m.Bronze.TableCount)
	assert.Len(t, m.Bronze.Tables, 2)

	m = EvaluateDomain(d, Options{MaxTables: -1})
	assert.Len(t, m.Bronze.Tables, 5)
}

func TestEvaluateDomainInjectedRules(t *testing.T) {
	rules := infer.DefaultRules()
	rules.BusinessDimensions = nil

	m := EvaluateDomain(customerDomain(), Options{Rules: &rules})

	require.Len(t, m.Gold.Relationships, 1)
	assert.Equal(t, "gold.dim_date", m.Gold.Relationships[0].To)
}

func TestEvaluateDomainLogsLayers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	EvaluateDomain(customerDomain(), Options{Enrich: true, Logger: logger})

	out := buf.String()
	assert.Contains(t, out, `msg="layer relationships generated"`)
	assert.Contains(t, out, "domain=customer")
	assert.Contains(t, out, "layer=silver count=3")
}

func TestEvaluateCatalogKeepsOrder(t *testing.T) {
	c := &catalog.Catalog{}
	for i := range 10 {
		d := customerDomain()
		d.ID = fmt.Sprintf("d%02d", i)
		c.Domains = append(c.Domains, d)
	}

	models, err := EvaluateCatalog(context.Background(), c, Options{
		Enrich:      true,
		Concurrency: 3,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.Len(t, models, 10)
	for i, m := range models {
		assert.Equal(t, fmt.Sprintf("d%02d", i), m.DomainID)
		assert.Len(t, m.Relationships(), 6)
	}
}

func TestEvaluateCatalogCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := EvaluateCatalog(ctx, &catalog.Catalog{Domains: []catalog.Domain{customerDomain()}}, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
