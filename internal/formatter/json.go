package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tordrt/erdinfer/internal/evaluate"
)

// JSONFormatter writes the models as an indented JSON document
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

type jsonDocument struct {
	Domains []evaluate.DomainModel `json:"domains"`
	Reports []evaluate.Report      `json:"verification"`
	Summary evaluate.Summary       `json:"summary"`
}

// Format encodes the models with their verification reports
func (f *JSONFormatter) Format(models []evaluate.DomainModel) error {
	if models == nil {
		models = []evaluate.DomainModel{}
	}
	reports := evaluate.Verify(models)
	doc := jsonDocument{
		Domains: models,
		Reports: reports,
		Summary: evaluate.Summarize(reports),
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode models: %w", err)
	}
	return nil
}
