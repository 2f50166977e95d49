package formatter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/evaluate"
)

// TextFormatter prints one table of relationships per layer
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes every domain as boxed tables
func (f *TextFormatter) Format(models []evaluate.DomainModel) error {
	for i := range models {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		f.formatDomain(&models[i])
	}
	return nil
}

func (f *TextFormatter) formatDomain(m *evaluate.DomainModel) {
	_, _ = fmt.Fprintf(f.writer, "DOMAIN %s (%s)\n", m.DomainID, m.DomainName)

	if len(m.Logical) > 0 {
		_, _ = fmt.Fprintln(f.writer, "\nLogical")
		f.renderLogical(m.Logical)
	}

	for _, layer := range m.Layers() {
		_, _ = fmt.Fprintf(f.writer, "\n%s (%d tables)\n", layer.Name, layer.TableCount)
		if len(layer.Relationships) == 0 {
			_, _ = fmt.Fprintln(f.writer, "  no relationships")
			continue
		}
		f.renderPhysical(layer.Relationships)
	}

	for _, issue := range m.Issues {
		_, _ = fmt.Fprintf(f.writer, "! %s\n", issue)
	}
}

func (f *TextFormatter) renderLogical(rels []catalog.LogicalRelationship) {
	t := table.NewWriter()
	t.SetOutputMirror(f.writer)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"From", "Type", "To", "Label"})
	for _, r := range rels {
		t.AppendRow(table.Row{r.From, string(r.Type), r.To, r.Label})
	}
	t.Render()
}

func (f *TextFormatter) renderPhysical(rels []catalog.Relationship) {
	t := table.NewWriter()
	t.SetOutputMirror(f.writer)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"From", "To", "Column", "Rule"})
	for _, r := range rels {
		t.AppendRow(table.Row{r.From, r.To, columnPair(r.FromColumn, r.ToColumn), r.Rule})
	}
	t.Render()
}
