// Package formatter renders evaluated domain models as text tables,
// markdown, mermaid ER diagrams, JSON or a directory of markdown files.
package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/erdinfer/internal/evaluate"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
	FormatJSON     = "json"
)

// Formats lists the single-writer output formats
var Formats = []string{FormatText, FormatMarkdown, FormatMermaid, FormatJSON}

// Formatter writes a set of domain models
type Formatter interface {
	Format(models []evaluate.DomainModel) error
}

// New returns the formatter for format writing to w
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	case FormatMermaid:
		return NewMermaidFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %v)", format, Formats)
	}
}

// columnPair renders the join columns of an edge
func columnPair(from, to string) string {
	if from == to || to == "" {
		return from
	}
	return from + " → " + to
}
