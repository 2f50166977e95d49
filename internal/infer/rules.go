package infer

import "github.com/tordrt/erdinfer/internal/catalog"

// MatchPolicy decides which entity binds a template slot when several match
type MatchPolicy string

const (
	// MatchLast keeps the last matching entity in input order
	MatchLast MatchPolicy = "last"
	// MatchFirst keeps the first matching entity in input order
	MatchFirst MatchPolicy = "first"
	// MatchReject skips the template when a slot matches more than one entity
	MatchReject MatchPolicy = "reject"
)

// DomainKeyword links a dimension base name to the fact keywords that
// imply a reference to it
type DomainKeyword struct {
	Dimension    string
	FactKeywords []string
}

// LayerPattern is a known table-to-table edge injected when both tables exist
type LayerPattern struct {
	From  string
	To    string
	Field string
}

// LogicalTemplate is a business relationship matched by two keywords
type LogicalTemplate struct {
	From     string
	To       string
	Type     catalog.Cardinality
	Label    string
	Keywords [2]string
}

// Rules holds every heuristic table the generators consult. Generators
// never modify a Rules value.
type Rules struct {
	UniversalDimensions []string
	BusinessDimensions  []string
	DomainKeywords      []DomainKeyword
	MasterMarkers       []string
	EntitySuffixes      []string
	LayerPatterns       []LayerPattern
	LogicalTemplates    []LogicalTemplate
	MatchPolicy         MatchPolicy
}

// DefaultRules returns a fresh copy of the built-in banking heuristics
func DefaultRules() Rules {
	return Rules{
		UniversalDimensions: []string{"date", "time", "calendar"},
		BusinessDimensions: []string{
			"customer", "borrower", "client", "account",
			"branch", "channel", "geography", "location",
		},
		DomainKeywords: []DomainKeyword{
			{Dimension: "loan", FactKeywords: []string{"loan"}},
			{Dimension: "card", FactKeywords: []string{"card"}},
			{Dimension: "deposit", FactKeywords: []string{"deposit"}},
			{Dimension: "account", FactKeywords: []string{"account"}},
			{Dimension: "transaction", FactKeywords: []string{"transaction"}},
			{Dimension: "payment", FactKeywords: []string{"payment"}},
			{Dimension: "merchant", FactKeywords: []string{"merchant", "card"}},
		},
		MasterMarkers: []string{
			"_master", "_golden", "_enriched", "_current",
			"_performance", "_journeys", "_attribution",
		},
		EntitySuffixes: []string{
			"_raw", "_master", "_golden", "_cleansed", "_history", "_daily",
			"_tracking", "_enriched", "_current", "_performance", "_agg", "_aggregated",
		},
		LayerPatterns: []LayerPattern{
			{From: "mktg_leads_enriched", To: "mktg_campaigns_enriched", Field: "campaign_id"},
			{From: "mktg_customer_journeys", To: "mktg_leads_enriched", Field: "lead_id"},
			{From: "mktg_customer_journeys", To: "mktg_campaigns_enriched", Field: "campaign_id"},
			{From: "mktg_multi_touch_attribution", To: "mktg_customer_journeys", Field: "journey_id"},
			{From: "mktg_multi_touch_attribution", To: "mktg_campaigns_enriched", Field: "campaign_id"},
			{From: "mktg_campaign_performance_daily", To: "mktg_campaigns_enriched", Field: "campaign_id"},
			{From: "mktg_offer_performance", To: "mktg_campaigns_enriched", Field: "campaign_id"},

			{From: "loan_applications", To: "loan_master", Field: "loan_id"},
			{From: "loan_balances", To: "loan_master", Field: "loan_id"},
			{From: "loan_transactions", To: "loan_master", Field: "loan_id"},
			{From: "loan_payments", To: "loan_master", Field: "loan_id"},
			{From: "loan_delinquency", To: "loan_master", Field: "loan_id"},
			{From: "loan_collateral", To: "loan_master", Field: "loan_id"},

			{From: "customer_accounts", To: "customer_master", Field: "customer_id"},
			{From: "customer_identifiers", To: "customer_master", Field: "source_customer_id"},
			{From: "customer_relationships", To: "customer_master", Field: "primary_customer_id"},

			{From: "account_transactions", To: "account_master", Field: "account_id"},
			{From: "account_balances", To: "account_master", Field: "account_id"},

			{From: "card_transactions", To: "card_master", Field: "card_id"},
			{From: "card_authorizations", To: "card_master", Field: "card_id"},
		},
		LogicalTemplates: []LogicalTemplate{
			{From: "customer", To: "account", Type: catalog.OneToMany, Label: "owns", Keywords: [2]string{"customer", "account"}},
			{From: "customer", To: "household", Type: catalog.ManyToMany, Label: "member of", Keywords: [2]string{"customer", "household"}},
			{From: "customer", To: "contact", Type: catalog.OneToOne, Label: "has", Keywords: [2]string{"customer", "contact"}},
			{From: "customer", To: "product", Type: catalog.ManyToMany, Label: "holds", Keywords: [2]string{"customer", "product"}},
			{From: "customer", To: "loan", Type: catalog.OneToMany, Label: "borrows", Keywords: [2]string{"customer", "loan"}},
			{From: "customer", To: "card", Type: catalog.OneToMany, Label: "holds", Keywords: [2]string{"customer", "card"}},

			{From: "account", To: "transaction", Type: catalog.OneToMany, Label: "has", Keywords: [2]string{"account", "transaction"}},
			{From: "account", To: "balance", Type: catalog.OneToMany, Label: "has", Keywords: [2]string{"account", "balance"}},
			{From: "account", To: "product", Type: catalog.ManyToOne, Label: "is of type", Keywords: [2]string{"account", "product"}},

			{From: "loan", To: "collateral", Type: catalog.OneToMany, Label: "secured by", Keywords: [2]string{"loan", "collateral"}},
			{From: "loan", To: "payment", Type: catalog.OneToMany, Label: "has", Keywords: [2]string{"loan", "payment"}},
			{From: "loan", To: "borrower", Type: catalog.ManyToOne, Label: "belongs to", Keywords: [2]string{"loan", "borrower"}},

			{From: "card", To: "transaction", Type: catalog.OneToMany, Label: "has", Keywords: [2]string{"card", "transaction"}},
			{From: "card", To: "account", Type: catalog.ManyToOne, Label: "linked to", Keywords: [2]string{"card", "account"}},

			{From: "payment", To: "account", Type: catalog.ManyToOne, Label: "from", Keywords: [2]string{"payment", "account"}},
			{From: "transaction", To: "account", Type: catalog.ManyToOne, Label: "on", Keywords: [2]string{"transaction", "account"}},

			{From: "branch", To: "account", Type: catalog.OneToMany, Label: "manages", Keywords: [2]string{"branch", "account"}},
			{From: "channel", To: "transaction", Type: catalog.OneToMany, Label: "processes", Keywords: [2]string{"channel", "transaction"}},
		},
		MatchPolicy: MatchLast,
	}
}
