package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/evaluate"
)

// MarkdownFormatter formats domain models as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes all domains under one document title
func (f *MarkdownFormatter) Format(models []evaluate.DomainModel) error {
	_, _ = fmt.Fprintln(f.writer, "# Entity Relationships")
	_, _ = fmt.Fprintln(f.writer)

	for i := range models {
		f.FormatDomain(&models[i])
	}
	return nil
}

// FormatDomain writes a single domain section (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatDomain(m *evaluate.DomainModel) {
	_, _ = fmt.Fprintf(f.writer, "## %s (`%s`)\n\n", m.DomainName, m.DomainID)
	if m.Priority != "" {
		_, _ = fmt.Fprintf(f.writer, "Priority: %s\n\n", m.Priority)
	}

	if len(m.Logical) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Logical")
		_, _ = fmt.Fprintln(f.writer)
		for _, r := range m.Logical {
			f.formatLogical(r)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	for _, layer := range m.Layers() {
		_, _ = fmt.Fprintf(f.writer, "### %s\n\n", layer.Name)
		if len(layer.Relationships) == 0 {
			_, _ = fmt.Fprintf(f.writer, "_No relationships across %d tables._\n\n", layer.TableCount)
			continue
		}
		for _, r := range layer.Relationships {
			f.formatRelationship(r)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(m.Issues) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Issues")
		_, _ = fmt.Fprintln(f.writer)
		for _, issue := range m.Issues {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", issue)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatLogical(r catalog.LogicalRelationship) {
	if r.Label != "" {
		_, _ = fmt.Fprintf(f.writer, "- %s → %s (%s, %s)\n", r.From, r.To, r.Type, r.Label)
		return
	}
	_, _ = fmt.Fprintf(f.writer, "- %s → %s (%s)\n", r.From, r.To, r.Type)
}

func (f *MarkdownFormatter) formatRelationship(r catalog.Relationship) {
	_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s.%s (%s)\n", r.From, r.FromColumn, r.To, r.ToColumn, r.Rule)
}
