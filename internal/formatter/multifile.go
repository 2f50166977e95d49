package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/evaluate"
)

// MultiFileFormatter writes an overview plus one markdown file per domain
type MultiFileFormatter struct {
	OutputDir string
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string) *MultiFileFormatter {
	return &MultiFileFormatter{OutputDir: outputDir}
}

// Format writes _overview.md and <domain_id>.md files
func (f *MultiFileFormatter) Format(models []evaluate.DomainModel) error {
	for i := range models {
		if err := catalog.CheckDomainID(models[i].DomainID); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(models); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for i := range models {
		if err := f.writeDomainFile(&models[i]); err != nil {
			return fmt.Errorf("failed to write domain file for %s: %w", models[i].DomainID, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(models []evaluate.DomainModel) error {
	file, err := os.Create(filepath.Join(f.OutputDir, "_overview.md"))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	reports := evaluate.Verify(models)
	summary := evaluate.Summarize(reports)

	_, _ = fmt.Fprintf(file, "# ERD Overview\n\n")
	_, _ = fmt.Fprintf(file, "Each domain has a corresponding file: `<domain_id>.md`\n\n")
	_, _ = fmt.Fprintf(file, "%d domains: %d pass, %d warn, %d fail (%.1f%% pass rate)\n\n",
		summary.Total, summary.Pass, summary.Warn, summary.Fail, summary.PassRate)
	_, _ = fmt.Fprintf(file, "## Domains\n\n")

	sorted := make([]evaluate.Report, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DomainID < sorted[j].DomainID
	})

	for _, r := range sorted {
		_, _ = fmt.Fprintf(file, "- **%s** %s: %d logical, %d bronze, %d silver, %d gold (%s)\n",
			r.DomainID, r.DomainName, r.Logical, r.Bronze, r.Silver, r.Gold, r.Status)
	}

	return nil
}

func (f *MultiFileFormatter) writeDomainFile(m *evaluate.DomainModel) error {
	file, err := os.Create(filepath.Join(f.OutputDir, m.DomainID+".md"))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	NewMarkdownFormatter(file).FormatDomain(m)
	writeReferencedBy(file, m)
	return nil
}

// IncomingRelation is an edge pointing at a table
type IncomingRelation struct {
	SourceTable  string
	SourceColumn string
	TargetColumn string
	Rule         string
}

// FindIncomingRelations groups the domain's physical edges by target table
func FindIncomingRelations(m *evaluate.DomainModel) map[string][]IncomingRelation {
	incoming := make(map[string][]IncomingRelation)
	for _, r := range m.Relationships() {
		incoming[r.To] = append(incoming[r.To], IncomingRelation{
			SourceTable:  r.From,
			SourceColumn: r.FromColumn,
			TargetColumn: r.ToColumn,
			Rule:         r.Rule,
		})
	}
	return incoming
}

func writeReferencedBy(w io.Writer, m *evaluate.DomainModel) {
	incoming := FindIncomingRelations(m)
	if len(incoming) == 0 {
		return
	}

	targets := make([]string, 0, len(incoming))
	for t := range incoming {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	_, _ = fmt.Fprintf(w, "### Referenced by\n\n")
	for _, target := range targets {
		_, _ = fmt.Fprintf(w, "#### %s\n\n", target)
		for _, rel := range incoming[target] {
			_, _ = fmt.Fprintf(w, "- %s.%s → %s (%s)\n", rel.SourceTable, rel.SourceColumn, rel.TargetColumn, rel.Rule)
		}
		_, _ = fmt.Fprintln(w)
	}
}
