package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/extract"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
	"github.com/joseph-ayodele/jurisprudence/internal/textnorm"
)

// FieldStage runs the rule-based extractor and, when configured, asks the
// filler for whatever the rules missed.
type FieldStage struct {
	Extractor *extract.Extractor
	Filler    llm.FieldFiller
	Logger    *slog.Logger
}

func NewFieldStage(ex *extract.Extractor, filler llm.FieldFiller, logger *slog.Logger) *FieldStage {
	if logger == nil {
		logger = slog.Default()
	}
	if filler == nil {
		filler = llm.NoopFiller{}
	}
	return &FieldStage{Extractor: ex, Filler: filler, Logger: logger}
}

// Run never fails because of the filler; only extractor errors (a
// cancelled context) are returned.
func (s *FieldStage) Run(ctx context.Context, text, filename string) (*extract.Result, llm.FillResult, error) {
	res, err := s.Extractor.Extract(ctx, text)
	if err != nil {
		return nil, llm.Skipped(), err
	}

	missing := res.Missing()
	if len(missing) == 0 {
		return res, llm.Skipped(), nil
	}

	fill := s.Filler.FillMissing(ctx, llm.FillRequest{Text: res.Text, Missing: missing, Filename: filename})
	switch fill.Status {
	case llm.FillOK:
		merged := Merge(res, fill.Fields)
		s.Logger.Info("pipeline.fill.merged", "filename", filename, "filled", merged, "missing", len(missing))
	case llm.FillSkipped:
	default:
		s.Logger.Warn("pipeline.fill.degraded", "filename", filename, "status", fill.Status, "error", fill.Err)
	}
	return res, fill, nil
}

// Merge copies filled values into res for fields res does not have.
// Rule-based values always win. Filled values are normalized like extracted
// ones; a ref must be all digits and a date_decision must parse, which then
// also sets DecisionDate. Returns the merged field names.
func Merge(res *extract.Result, filled map[string]string) []string {
	var merged []string
	for field, v := range filled {
		if !constants.IsMetadataField(field) {
			continue
		}
		v = textnorm.Normalize(v)
		if v == "" {
			continue
		}
		if _, ok := res.Get(field); ok {
			continue
		}
		if field == constants.FieldRef && !digitsOnly(v) {
			continue
		}
		if field == constants.FieldDateDecision {
			if res.DecisionDate != nil {
				continue
			}
			d, ok := extract.ParseDate(v)
			if !ok {
				continue
			}
			res.DecisionDate = &d
		}
		res.Set(field, v)
		merged = append(merged, field)
	}
	if _, ok := res.Get(constants.FieldTitre); !ok {
		if theme, ok := res.Get(constants.FieldTheme); ok {
			res.Set(constants.FieldTitre, theme)
		}
	}
	sort.Strings(merged)
	return merged
}

func digitsOnly(s string) bool {
	return strings.Trim(s, "0123456789") == ""
}
