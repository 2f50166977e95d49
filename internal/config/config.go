// Package config loads erdinfer run configuration from defaults, an
// erdinfer.yaml file, ERDINFER_ environment variables and command flags.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/formatter"
	"github.com/tordrt/erdinfer/internal/infer"
)

// Config is the resolved configuration of one CLI run
type Config struct {
	Catalog     string      `koanf:"catalog"`
	Format      string      `koanf:"format"`
	Output      string      `koanf:"output"`
	OutputDir   string      `koanf:"output_dir"`
	Domains     []string    `koanf:"domains"`
	Enrich      bool        `koanf:"enrich"`
	Verbose     bool        `koanf:"verbose"`
	MatchPolicy string      `koanf:"match_policy"`
	Rules       RulesConfig `koanf:"rules"`
}

// RulesConfig overrides heuristic tables. A non-empty list replaces the
// built-in list of the same name.
type RulesConfig struct {
	UniversalDimensions []string                `koanf:"universal_dimensions"`
	BusinessDimensions  []string                `koanf:"business_dimensions"`
	DomainKeywords      []DomainKeywordConfig   `koanf:"domain_keywords"`
	MasterMarkers       []string                `koanf:"master_markers"`
	EntitySuffixes      []string                `koanf:"entity_suffixes"`
	LayerPatterns       []LayerPatternConfig    `koanf:"layer_patterns"`
	LogicalTemplates    []LogicalTemplateConfig `koanf:"logical_templates"`
}

type DomainKeywordConfig struct {
	Dimension    string   `koanf:"dimension"`
	FactKeywords []string `koanf:"fact_keywords"`
}

type LayerPatternConfig struct {
	From  string `koanf:"from"`
	To    string `koanf:"to"`
	Field string `koanf:"field"`
}

type LogicalTemplateConfig struct {
	From     string   `koanf:"from"`
	To       string   `koanf:"to"`
	Type     string   `koanf:"type"`
	Label    string   `koanf:"label"`
	Keywords []string `koanf:"keywords"`
}

var matchPolicies = []infer.MatchPolicy{infer.MatchLast, infer.MatchFirst, infer.MatchReject}

var cardinalities = []catalog.Cardinality{
	catalog.OneToOne, catalog.OneToMany, catalog.ManyToOne, catalog.ManyToMany,
}

// Validate checks enumerated values
func (c *Config) Validate() error {
	var errs []error
	if c.Format != "" && !slices.Contains(formatter.Formats, c.Format) {
		errs = append(errs, fmt.Errorf("unknown format %q (want one of %v)", c.Format, formatter.Formats))
	}
	if c.MatchPolicy != "" && !slices.Contains(matchPolicies, infer.MatchPolicy(c.MatchPolicy)) {
		errs = append(errs, fmt.Errorf("unknown match_policy %q (want last, first or reject)", c.MatchPolicy))
	}
	for i, t := range c.Rules.LogicalTemplates {
		if !slices.Contains(cardinalities, catalog.Cardinality(t.Type)) {
			errs = append(errs, fmt.Errorf("rules.logical_templates[%d]: unknown type %q", i, t.Type))
		}
		if len(t.Keywords) != 2 {
			errs = append(errs, fmt.Errorf("rules.logical_templates[%d]: need exactly 2 keywords, got %d", i, len(t.Keywords)))
		}
	}
	for i, p := range c.Rules.LayerPatterns {
		if p.From == "" || p.To == "" {
			errs = append(errs, fmt.Errorf("rules.layer_patterns[%d]: from and to are required", i))
		}
	}
	return errors.Join(errs...)
}

// BuildRules applies the overrides and match policy to the built-in rules
func (c *Config) BuildRules() (infer.Rules, error) {
	if err := c.Validate(); err != nil {
		return infer.Rules{}, err
	}

	r := infer.DefaultRules()
	o := c.Rules

	if len(o.UniversalDimensions) > 0 {
		r.UniversalDimensions = o.UniversalDimensions
	}
	if len(o.BusinessDimensions) > 0 {
		r.BusinessDimensions = o.BusinessDimensions
	}
	if len(o.MasterMarkers) > 0 {
		r.MasterMarkers = o.MasterMarkers
	}
	if len(o.EntitySuffixes) > 0 {
		r.EntitySuffixes = o.EntitySuffixes
	}
	if len(o.DomainKeywords) > 0 {
		r.DomainKeywords = make([]infer.DomainKeyword, 0, len(o.DomainKeywords))
		for _, k := range o.DomainKeywords {
			r.DomainKeywords = append(r.DomainKeywords, infer.DomainKeyword{Dimension: k.Dimension, FactKeywords: k.FactKeywords})
		}
	}
	if len(o.LayerPatterns) > 0 {
		r.LayerPatterns = make([]infer.LayerPattern, 0, len(o.LayerPatterns))
		for _, p := range o.LayerPatterns {
			r.LayerPatterns = append(r.LayerPatterns, infer.LayerPattern{From: p.From, To: p.To, Field: p.Field})
		}
	}
	if len(o.LogicalTemplates) > 0 {
		r.LogicalTemplates = make([]infer.LogicalTemplate, 0, len(o.LogicalTemplates))
		for _, t := range o.LogicalTemplates {
			r.LogicalTemplates = append(r.LogicalTemplates, infer.LogicalTemplate{
				From:     t.From,
				To:       t.To,
				Type:     catalog.Cardinality(t.Type),
				Label:    t.Label,
				Keywords: [2]string{t.Keywords[0], t.Keywords[1]},
			})
		}
	}
	if c.MatchPolicy != "" {
		r.MatchPolicy = infer.MatchPolicy(c.MatchPolicy)
	}

	return r, nil
}
