package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdinfer/internal/catalog"
)

func TestGenerateLogicalRelationshipsCustomerAccount(t *testing.T) {
	got := GenerateLogicalRelationships([]string{"Customer", "Account"}, DefaultRules())

	assert.Equal(t, []catalog.LogicalRelationship{
		{From: "Customer", To: "Account", Type: catalog.OneToMany, Label: "owns"},
	}, got)
}

func TestGenerateLogicalRelationshipsCatalogOrder(t *testing.T) {
	got := GenerateLogicalRelationships([]string{"Customer", "Account", "Transaction", "Card"}, DefaultRules())

	want := []catalog.LogicalRelationship{
		{From: "Customer", To: "Account", Type: catalog.OneToMany, Label: "owns"},
		{From: "Customer", To: "Card", Type: catalog.OneToMany, Label: "holds"},
		{From: "Account", To: "Transaction", Type: catalog.OneToMany, Label: "has"},
		{From: "Card", To: "Transaction", Type: catalog.OneToMany, Label: "has"},
		{From: "Card", To: "Account", Type: catalog.ManyToOne, Label: "linked to"},
		{From: "Transaction", To: "Account", Type: catalog.ManyToOne, Label: "on"},
	}
	assert.Equal(t, want, got)
}

func TestGenerateLogicalRelationshipsMatchPolicy(t *testing.T) {
	entities := []string{"Customer Master", "Customer", "Account"}

	tests := []struct {
		policy   MatchPolicy
		wantFrom string
	}{
		{policy: MatchLast, wantFrom: "Customer"},
		{policy: "", wantFrom: "Customer"},
		{policy: MatchFirst, wantFrom: "Customer Master"},
		{policy: MatchReject},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			rules := DefaultRules()
			rules.MatchPolicy = tt.policy

			got := GenerateLogicalRelationships(entities, rules)
			if tt.wantFrom == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantFrom, got[0].From)
			assert.Equal(t, "Account", got[0].To)
		})
	}
}

func TestGenerateLogicalRelationshipsRejectsSelfLoops(t *testing.T) {
	assert.Empty(t, GenerateLogicalRelationships([]string{"CustomerAccount"}, DefaultRules()))
	assert.Empty(t, GenerateLogicalRelationships([]string{""}, DefaultRules()))
	assert.Empty(t, GenerateLogicalRelationships(nil, DefaultRules()))
}

func TestGenerateLogicalRelationshipsSkipsRepeatedPairs(t *testing.T) {
	rules := DefaultRules()
	rules.LogicalTemplates = []LogicalTemplate{
		{Type: catalog.OneToMany, Label: "owns", Keywords: [2]string{"customer", "account"}},
		{Type: catalog.ManyToMany, Label: "shares", Keywords: [2]string{"client", "account"}},
	}

	got := GenerateLogicalRelationships([]string{"Customer", "Client", "Account"}, rules)

	require.Len(t, got, 2)
	assert.Equal(t, "Customer", got[0].From)
	assert.Equal(t, "Client", got[1].From)

	rules.LogicalTemplates[1].Keywords = [2]string{"cust", "account"}
	got = GenerateLogicalRelationships([]string{"Customer", "Account"}, rules)
	require.Len(t, got, 1)
	assert.Equal(t, "owns", got[0].Label)
}

func TestNormalizeEntity(t *testing.T) {
	assert.Equal(t, "loanaccount", NormalizeEntity("Loan-Account_01"))
	assert.Equal(t, "", NormalizeEntity("42"))
}
