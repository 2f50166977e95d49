// Package evaluate runs the relationship generators over every layer of a
// catalog domain and summarizes how complete the resulting ERDs are.
package evaluate

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/enrich"
	"github.com/tordrt/erdinfer/internal/infer"
)

const (
	DefaultMaxTables        = 50
	DefaultMaxRelationships = 100
	DefaultConcurrency      = 4
)

// Options configures domain evaluation
type Options struct {
	// Rules overrides the built-in heuristics when non-nil
	Rules *infer.Rules
	// Enrich runs PK/FK detection and name-based column inference before linking
	Enrich bool
	// MaxTables and MaxRelationships cap what each layer keeps for display.
	// Zero selects the default; a negative value disables the cap.
	MaxTables        int
	MaxRelationships int
	// Concurrency bounds parallel domain evaluation in EvaluateCatalog
	Concurrency int
	Logger      *slog.Logger
}

// DefaultOptions returns options with enrichment on and default caps
func DefaultOptions() Options {
	return Options{Enrich: true}
}

func (o Options) rules() infer.Rules {
	if o.Rules != nil {
		return *o.Rules
	}
	return infer.DefaultRules()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func limit(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}

// LayerModel is the evaluated state of one layer of a domain
type LayerModel struct {
	Name             string                    `json:"name"`
	TableCount       int                       `json:"tableCount"`
	DimensionCount   int                       `json:"dimensionCount,omitempty"`
	FactCount        int                       `json:"factCount,omitempty"`
	HasSchema        bool                      `json:"hasSchema"`
	HasRelationships bool                      `json:"hasRelationships"`
	Completeness     int                       `json:"completeness"`
	Tables           []catalog.TableDescriptor `json:"tables,omitempty"`
	Relationships    []catalog.Relationship    `json:"relationships,omitempty"`
	Diagnostics      []infer.Diagnostic        `json:"diagnostics,omitempty"`
}

// DomainModel is the evaluated state of one domain
type DomainModel struct {
	DomainID        string                        `json:"domainId"`
	DomainName      string                        `json:"domainName"`
	Priority        string                        `json:"priority,omitempty"`
	Entities        []string                      `json:"entities,omitempty"`
	Logical         []catalog.LogicalRelationship `json:"logicalRelationships,omitempty"`
	Bronze          *LayerModel                   `json:"bronzeLayer,omitempty"`
	Silver          *LayerModel                   `json:"silverLayer,omitempty"`
	Gold            *LayerModel                   `json:"goldLayer,omitempty"`
	Issues          []string                      `json:"issues,omitempty"`
	Recommendations []string                      `json:"recommendations,omitempty"`
}

// Layers returns the defined layers in bronze, silver, gold order
func (m *DomainModel) Layers() []*LayerModel {
	var out []*LayerModel
	for _, l := range []*LayerModel{m.Bronze, m.Silver, m.Gold} {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Relationships returns every physical relationship of the domain
func (m *DomainModel) Relationships() []catalog.Relationship {
	var out []catalog.Relationship
	for _, l := range m.Layers() {
		out = append(out, l.Relationships...)
	}
	return out
}

// EvaluateDomain infers every relationship a domain's layers allow
func EvaluateDomain(d catalog.Domain, opts Options) DomainModel {
	rules := opts.rules()
	log := opts.logger().With("domain", d.ID)

	m := DomainModel{
		DomainID:   d.ID,
		DomainName: d.Name,
		Priority:   d.Priority,
		Entities:   d.Entities,
		Logical:    infer.GenerateLogicalRelationships(d.Entities, rules),
	}
	log.Debug("logical relationships generated", "entities", len(d.Entities), "count", len(m.Logical))

	if d.Bronze != nil {
		m.Bronze = evaluatePhysical("Bronze Layer", d.Bronze, catalog.LayerBronze, rules, opts)
		log.Debug("layer relationships generated", "layer", catalog.LayerBronze, "count", len(m.Bronze.Relationships))
	} else {
		m.Issues = append(m.Issues, "Missing Bronze Layer definition")
		m.Recommendations = append(m.Recommendations, "Define Bronze Layer raw tables with schemas")
	}

	if d.Silver != nil {
		m.Silver = evaluatePhysical("Silver Layer", d.Silver, catalog.LayerSilver, rules, opts)
		log.Debug("layer relationships generated", "layer", catalog.LayerSilver, "count", len(m.Silver.Relationships))
	} else {
		m.Issues = append(m.Issues, "Missing Silver Layer definition")
		m.Recommendations = append(m.Recommendations, "Define Silver Layer curated/cleansed tables")
	}

	if d.Gold != nil {
		m.Gold = evaluateGold(d.Gold, rules, opts)
		log.Debug("layer relationships generated", "layer", "gold",
			"dimensions", m.Gold.DimensionCount, "facts", m.Gold.FactCount, "count", len(m.Gold.Relationships))
	} else {
		m.Issues = append(m.Issues, "Missing Gold Layer definition")
		m.Recommendations = append(m.Recommendations, "Define Gold Layer dimensional model (facts & dimensions)")
	}

	return m
}

func evaluatePhysical(name string, raw []catalog.TableDescriptor, layer catalog.Layer, rules infer.Rules, opts Options) *LayerModel {
	tables := raw
	if opts.Enrich {
		tables = enrich.EnrichAll(raw, layer)
	}
	rels := infer.Dedupe(infer.GenerateLayerRelationships(tables, rules))

	hasSchema := false
	for _, t := range raw {
		if t.Form != catalog.FormNone || (layer == catalog.LayerSilver && t.Description != "") {
			hasSchema = true
			break
		}
	}

	completeness := 0
	if len(raw) > 0 {
		completeness = 50
		if hasSchema {
			completeness = 100
		}
	}

	return &LayerModel{
		Name:             name,
		TableCount:       len(raw),
		HasSchema:        hasSchema,
		HasRelationships: len(rels) > 0,
		Completeness:     completeness,
		Tables:           capSlice(tables, limit(opts.MaxTables, DefaultMaxTables)),
		Relationships:    capSlice(rels, limit(opts.MaxRelationships, DefaultMaxRelationships)),
		Diagnostics:      infer.Diagnose(raw),
	}
}

func evaluateGold(gold *catalog.GoldLayer, rules infer.Rules, opts Options) *LayerModel {
	rels := infer.Dedupe(infer.GenerateStarSchemaRelationships(gold.Dimensions, gold.Facts, rules))

	dims, facts := gold.Dimensions, gold.Facts
	if opts.Enrich {
		dims = enrich.EnrichAll(dims, catalog.LayerDimension)
		facts = enrich.EnrichAll(facts, catalog.LayerFact)
	}
	tables := append(append([]catalog.TableDescriptor(nil), dims...), facts...)

	hasSchema := false
	for _, d := range gold.Dimensions {
		if d.Grain != "" {
			hasSchema = true
			break
		}
	}

	count := len(gold.Dimensions) + len(gold.Facts)
	completeness := 0
	if count > 0 {
		completeness = 100
	}

	return &LayerModel{
		Name:             "Gold Layer",
		TableCount:       count,
		DimensionCount:   len(gold.Dimensions),
		FactCount:        len(gold.Facts),
		HasSchema:        hasSchema,
		HasRelationships: len(rels) > 0,
		Completeness:     completeness,
		Tables:           capSlice(tables, limit(opts.MaxTables, DefaultMaxTables)),
		Relationships:    capSlice(rels, limit(opts.MaxRelationships, DefaultMaxRelationships)),
	}
}

func capSlice[T any](s []T, n int) []T {
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// EvaluateCatalog evaluates every domain in parallel and returns the
// models in catalog order
func EvaluateCatalog(ctx context.Context, c *catalog.Catalog, opts Options) ([]DomainModel, error) {
	models := make([]DomainModel, len(c.Domains))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(opts.Concurrency, DefaultConcurrency))

	for i := range c.Domains {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			models[i] = EvaluateDomain(c.Domains[i], opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return models, nil
}
