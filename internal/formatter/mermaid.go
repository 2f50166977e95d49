package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/erdinfer/internal/catalog"
	"github.com/tordrt/erdinfer/internal/evaluate"
)

// MermaidFormatter writes one erDiagram per domain
type MermaidFormatter struct {
	writer io.Writer
}

// NewMermaidFormatter creates a new mermaid formatter
func NewMermaidFormatter(w io.Writer) *MermaidFormatter {
	return &MermaidFormatter{writer: w}
}

// Format writes the diagrams separated by blank lines
func (f *MermaidFormatter) Format(models []evaluate.DomainModel) error {
	for i := range models {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		f.FormatDomain(&models[i])
	}
	return nil
}

// FormatDomain writes the diagram of a single domain
func (f *MermaidFormatter) FormatDomain(m *evaluate.DomainModel) {
	_, _ = fmt.Fprintf(f.writer, "%%%% %s: %s\n", m.DomainID, m.DomainName)
	_, _ = fmt.Fprintln(f.writer, "erDiagram")

	for _, r := range m.Logical {
		_, _ = fmt.Fprintf(f.writer, "    %s %s %s : %q\n",
			MermaidID(r.From), crowsFoot(r.Type), MermaidID(r.To), mermaidLabel(r.Label, string(r.Type)))
	}

	for _, layer := range m.Layers() {
		if len(layer.Relationships) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(f.writer, "    %%%% %s\n", layer.Name)
		for _, r := range layer.Relationships {
			_, _ = fmt.Fprintf(f.writer, "    %s }o--|| %s : %q\n",
				MermaidID(r.From), MermaidID(r.To), mermaidLabel(r.FromColumn, r.Rule))
		}
	}
}

// MermaidID turns a table or entity name into a mermaid identifier:
// "bronze.loan_master" -> "bronze__loan_master"
func MermaidID(name string) string {
	name = strings.ReplaceAll(name, ".", "__")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func crowsFoot(c catalog.Cardinality) string {
	switch c {
	case catalog.OneToOne:
		return "||--||"
	case catalog.OneToMany:
		return "||--o{"
	case catalog.ManyToOne:
		return "}o--||"
	default:
		return "}o--o{"
	}
}

func mermaidLabel(label, fallback string) string {
	if label == "" {
		label = fallback
	}
	// mermaid labels cannot carry double quotes
	return strings.ReplaceAll(label, `"`, "'")
}
