package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdinfer/internal/catalog"
)

func TestGenerateLayerRelationshipsMasterLookup(t *testing.T) {
	tables := []catalog.TableDescriptor{
		catalog.KeyFieldsTable("silver.customer_master", "customer_id"),
		catalog.KeyFieldsTable("bronze.customer_accounts", "account_id", "customer_id"),
	}

	got := GenerateLayerRelationships(tables, DefaultRules())

	want := []catalog.Relationship{{
		From:       "bronze.customer_accounts",
		To:         "silver.customer_master",
		FromColumn: "customer_id",
		ToColumn:   "customer_id",
		Rule:       RuleRegistryExact,
	}}
	assert.Equal(t, want, got)
}

func TestGenerateLayerRelationshipsMarketingPlural(t *testing.T) {
	tables := []catalog.TableDescriptor{
		catalog.KeyFieldsTable("bronze.mktg_campaigns_enriched", "campaign_id"),
		catalog.KeyFieldsTable("bronze.mktg_leads_enriched", "lead_id", "campaign_id"),
	}

	got := GenerateLayerRelationships(tables, DefaultRules())

	require.Len(t, got, 1)
	assert.Equal(t, "bronze.mktg_leads_enriched", got[0].From)
	assert.Equal(t, "bronze.mktg_campaigns_enriched", got[0].To)
	assert.Equal(t, "campaign_id", got[0].FromColumn)
	assert.Equal(t, RuleRegistryExact, got[0].Rule)
}

func TestGenerateLayerRelationshipsResolutionOrder(t *testing.T) {
	tests := []struct {
		name     string
		tables   []catalog.TableDescriptor
		wantTo   string
		wantRule string
	}{
		{
			name: "fuzzy registry match",
			tables: []catalog.TableDescriptor{
				catalog.KeyFieldsTable("silver.account_master", "account_id"),
				catalog.KeyFieldsTable("silver.card_ledger", "ledger_id", "card_account_id"),
			},
			wantTo:   "silver.account_master",
			wantRule: RuleRegistryFuzzy,
		},
		{
			name: "catalog scan on bare entity table",
			tables: []catalog.TableDescriptor{
				catalog.KeyFieldsTable("bronze.branch", "branch_id"),
				catalog.KeyFieldsTable("bronze.atm_events", "event_id", "branch_id"),
			},
			wantTo:   "bronze.branch",
			wantRule: RuleCatalogScan,
		},
		{
			name: "catalog scan on dimension table",
			tables: []catalog.TableDescriptor{
				catalog.KeyFieldsTable("silver.dim_channel", "channel_key"),
				catalog.ColumnsTable("silver.session_events",
					catalog.Column{Name: "session_id", IsPK: true},
					catalog.Column{Name: "channel_key", IsFK: true},
				),
			},
			wantTo:   "silver.dim_channel",
			wantRule: RuleCatalogScan,
		},
		{
			name: "parent prefix stripped",
			tables: []catalog.TableDescriptor{
				catalog.KeyFieldsTable("silver.loan_master", "loan_id"),
				catalog.KeyFieldsTable("silver.loan_modifications", "modification_id", "parent_loan_id"),
			},
			wantTo:   "silver.loan_master",
			wantRule: RuleRegistryExact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateLayerRelationships(tt.tables, DefaultRules())
			require.Len(t, got, 1)
			assert.Equal(t, tt.tables[1].Name, got[0].From)
			assert.Equal(t, tt.wantTo, got[0].To)
			assert.Equal(t, tt.wantRule, got[0].Rule)
		})
	}
}

func TestGenerateLayerRelationshipsPatternInjection(t *testing.T) {
	tables := []catalog.TableDescriptor{
		{Name: "bronze.loan_payments_raw"},
		catalog.KeyFieldsTable("silver.loan_master", "loan_id"),
	}

	got := GenerateLayerRelationships(tables, DefaultRules())

	want := []catalog.Relationship{{
		From:       "bronze.loan_payments_raw",
		To:         "silver.loan_master",
		FromColumn: "loan_id",
		ToColumn:   "loan_id",
		Rule:       RulePattern,
	}}
	assert.Equal(t, want, got)
}

func TestGenerateLayerRelationshipsNoSelfLoopsOrDuplicates(t *testing.T) {
	tables := []catalog.TableDescriptor{
		catalog.KeyFieldsTable("silver.loan_master", "loan_id", "loan_id"),
		catalog.KeyFieldsTable("silver.customer_master", "customer_id"),
		catalog.ColumnsTable("bronze.customer_identifiers",
			catalog.Column{Name: "identifier_id", IsPK: true},
			catalog.Column{Name: "customer_id", IsFK: true},
			catalog.Column{Name: "source_customer_id", IsFK: true},
		),
	}

	got := GenerateLayerRelationships(tables, DefaultRules())

	require.Len(t, got, 1)
	assert.Equal(t, "bronze.customer_identifiers", got[0].From)
	assert.Equal(t, "silver.customer_master", got[0].To)
	assert.Equal(t, "customer_id", got[0].FromColumn)
	assertEdgeInvariants(t, tables, got)
}

func TestGenerateLayerRelationshipsMissingData(t *testing.T) {
	tables := []catalog.TableDescriptor{
		{Name: "bronze.mystery_feed"},
		catalog.SchemaTable("bronze.core_extract", catalog.SchemaField{Name: "customer_id", Type: "BIGINT"}),
	}

	assert.NotPanics(t, func() {
		assert.Empty(t, GenerateLayerRelationships(tables, DefaultRules()))
	})
	assert.Empty(t, GenerateLayerRelationships(nil, DefaultRules()))
}

func TestGenerateLayerRelationshipsLastMasterWins(t *testing.T) {
	tables := []catalog.TableDescriptor{
		catalog.KeyFieldsTable("bronze.card_master_raw", "card_id"),
		catalog.KeyFieldsTable("silver.card_golden", "card_id"),
		catalog.KeyFieldsTable("bronze.card_disputes", "dispute_id", "card_id"),
	}

	got := GenerateLayerRelationships(tables, DefaultRules())

	require.Len(t, got, 1)
	assert.Equal(t, "silver.card_golden", got[0].To)
}

func TestGenerateLayerRelationshipsDeterministic(t *testing.T) {
	build := func() []catalog.TableDescriptor {
		return []catalog.TableDescriptor{
			catalog.KeyFieldsTable("silver.customer_master", "customer_id"),
			catalog.KeyFieldsTable("silver.account_master", "account_id", "customer_id"),
			catalog.KeyFieldsTable("silver.account_transactions", "txn_id", "account_id", "customer_id"),
			catalog.KeyFieldsTable("silver.card_master", "card_id", "account_id"),
			catalog.KeyFieldsTable("silver.card_transactions", "txn_id", "card_id", "merchant_id"),
			{Name: "silver.loan_payments"},
			catalog.KeyFieldsTable("silver.loan_master", "loan_id", "customer_id"),
		}
	}

	first := GenerateLayerRelationships(build(), DefaultRules())
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, GenerateLayerRelationships(build(), DefaultRules()))
	}
	assertEdgeInvariants(t, build(), first)
}

func TestForeignKeyEntity(t *testing.T) {
	tests := map[string]string{
		"customer_id":        "customer",
		"CUSTOMER_ID":        "CUSTOMER",
		"date_key":           "date",
		"source_customer_id": "customer",
		"parent_loan_id":     "loan",
		"campaign":           "campaign",
	}
	for field, want := range tests {
		assert.Equal(t, want, ForeignKeyEntity(field), field)
	}
}

func assertEdgeInvariants(t *testing.T, tables []catalog.TableDescriptor, rels []catalog.Relationship) {
	t.Helper()

	names := make(map[string]bool)
	for _, tbl := range tables {
		names[tbl.Name] = true
	}
	pairs := make(map[[2]string]bool)
	for _, r := range rels {
		assert.NotEqual(t, r.From, r.To, "self loop")
		assert.True(t, names[r.From], "unknown from table %s", r.From)
		assert.True(t, names[r.To], "unknown to table %s", r.To)
		k := [2]string{r.From, r.To}
		assert.False(t, pairs[k], "duplicate edge %s -> %s", r.From, r.To)
		pairs[k] = true
	}
}
