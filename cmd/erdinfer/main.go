package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tordrt/erdinfer"
	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/config"
	"github.com/tordrt/erdinfer/internal/evaluate"
	"github.com/tordrt/erdinfer/internal/infer"
	"github.com/tordrt/erdinfer/internal/source"
)

var errVerifyFailed = errors.New("verification failed")

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "erdinfer",
		Short: "Infer entity relationships for a Bronze/Silver/Gold catalog",
		Long: `erdinfer reads a data catalog of business domains and infers foreign-key edges
between bronze and silver tables, star-schema edges in the gold layer, and business
relationships between key entities. Each edge records the rule that produced it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./erdinfer.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug records to stderr")

	rootCmd.AddCommand(newInferCmd(&cfgFile))
	rootCmd.AddCommand(newLogicalCmd(&cfgFile))
	rootCmd.AddCommand(newVerifyCmd(&cfgFile))
	rootCmd.AddCommand(newImportCmd(&cfgFile))

	return rootCmd
}

// addCatalogFlags registers the flags shared by commands that read a catalog
func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "", "Catalog location: .yaml/.json file, postgres://, mysql:// or sqlite://")
	cmd.Flags().StringSlice("domains", nil, "Specific domain ids (comma-separated, optional)")
	cmd.Flags().Bool("no-enrich", false, "Skip PK/FK column detection")
	cmd.Flags().String("match-policy", "", "Logical template slot policy: last, first or reject")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// evaluateCatalog resolves config, loads the catalog and evaluates every selected domain
func evaluateCatalog(cmd *cobra.Command, cfgFile string) (*config.Config, []evaluate.DomainModel, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Catalog == "" {
		return nil, nil, fmt.Errorf("--catalog must be specified (or set catalog in the config file)")
	}

	rules, err := cfg.BuildRules()
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	opts := &erdinfer.Options{
		Domains:       cfg.Domains,
		DisableEnrich: !cfg.Enrich,
		Rules:         &rules,
		Logger:        logger,
	}

	ctx := cmd.Context()
	c, err := erdinfer.LoadCatalog(ctx, cfg.Catalog, opts)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("catalog loaded", "domains", len(c.Domains))

	models, err := erdinfer.Infer(ctx, c, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to evaluate catalog: %w", err)
	}
	return cfg, models, nil
}

func newInferCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Infer relationships for every domain of a catalog",
		Example: `  erdinfer infer --catalog catalog.yaml
  erdinfer infer --catalog sqlite://catalog.db --domains loans,cards -f mermaid -o erd.mmd
  erdinfer infer --catalog catalog.yaml -d docs/erd`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, models, err := evaluateCatalog(cmd, *cfgFile)
			if err != nil {
				return err
			}

			if cfg.OutputDir != "" && cfg.Output != "" {
				return fmt.Errorf("cannot use both --output-dir and --output flags")
			}

			outOpts := &erdinfer.OutputOptions{Writer: cmd.OutOrStdout(), Format: cfg.Format, OutputDir: cfg.OutputDir}
			if cfg.Output != "" {
				f, err := os.Create(cfg.Output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close output file: %v\n", err)
					}
				}()
				outOpts.Writer = f
			}

			if err := erdinfer.FormatModels(models, outOpts); err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return nil
		},
	}

	addCatalogFlags(cmd)
	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, mermaid or json (default: text)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringP("output-dir", "d", "", "Output directory for multi-file markdown output")

	return cmd
}

func newLogicalCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logical <entity>...",
		Short:   "Print logical relationships between entity names",
		Example: `  erdinfer logical Customer Account Transaction`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			rules, err := cfg.BuildRules()
			if err != nil {
				return err
			}

			rels := infer.GenerateLogicalRelationships(args, rules)
			w := cmd.OutOrStdout()
			if len(rels) == 0 {
				_, _ = fmt.Fprintf(w, "no logical relationships for: %s\n", strings.Join(args, ", "))
				return nil
			}
			renderLogical(w, rels)
			return nil
		},
	}

	cmd.Flags().String("match-policy", "", "Logical template slot policy: last, first or reject")
	return cmd
}

func renderLogical(w io.Writer, rels []catalog.LogicalRelationship) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"From", "Type", "To", "Label"})
	for _, r := range rels {
		t.AppendRow(table.Row{r.From, string(r.Type), r.To, r.Label})
	}
	t.Render()
}

func newVerifyCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Grade the inferred ERDs of every domain",
		Long: `verify evaluates every domain and reports PASS, WARN or FAIL per domain.
The command exits with status 1 when any domain fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, models, err := evaluateCatalog(cmd, *cfgFile)
			if err != nil {
				return err
			}

			reports, summary := erdinfer.Verify(models)
			renderReports(cmd.OutOrStdout(), reports, summary)

			if summary.Fail > 0 {
				return fmt.Errorf("%w: %d of %d domains", errVerifyFailed, summary.Fail, summary.Total)
			}
			return nil
		},
	}

	addCatalogFlags(cmd)
	return cmd
}

func renderReports(w io.Writer, reports []evaluate.Report, summary evaluate.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Domain", "Status", "Logical", "Bronze", "Silver", "Gold", "Issues"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.DomainID, r.Status, r.Logical, r.Bronze, r.Silver, r.Gold, strings.Join(r.Issues, "\n")})
	}
	t.Render()

	_, _ = fmt.Fprintf(w, "%d domains: %d pass, %d warn, %d fail (%.1f%% pass rate)\n",
		summary.Total, summary.Pass, summary.Warn, summary.Fail, summary.PassRate)
}

func newImportCmd(cfgFile *string) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Store a catalog in a SQLite or MySQL catalog store",
		Example: `  erdinfer import --catalog catalog.yaml --to sqlite://catalog.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Catalog == "" {
				return fmt.Errorf("--catalog must be specified (or set catalog in the config file)")
			}

			ctx := cmd.Context()
			c, err := erdinfer.LoadCatalog(ctx, cfg.Catalog, &erdinfer.Options{Domains: cfg.Domains})
			if err != nil {
				return err
			}

			store, err := source.OpenStore(ctx, to)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close catalog store: %v\n", err)
				}
			}()

			if err := store.Init(ctx); err != nil {
				return err
			}
			if err := store.Save(ctx, c); err != nil {
				return err
			}

			kind, _, _ := source.ParseLocation(to)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d domains into %s store\n", len(c.Domains), kind)
			return nil
		},
	}

	cmd.Flags().String("catalog", "", "Catalog location to read")
	cmd.Flags().StringSlice("domains", nil, "Specific domain ids (comma-separated, optional)")
	cmd.Flags().StringVar(&to, "to", "", "Target store: sqlite://path or mysql://dsn")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
