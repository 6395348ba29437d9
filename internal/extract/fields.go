// Package extract pulls structured metadata and the bilingual sections out
// of the text of a jurisprudence PDF.
package extract

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/textnorm"
)

// Extractor applies a RuleSet to document text.
type Extractor struct {
	rules  RuleSet
	logger *slog.Logger
}

// NewExtractor builds an extractor over rules. A zero RuleSet means DefaultRules.
func NewExtractor(rules RuleSet, logger *slog.Logger) *Extractor {
	if rules.index == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rules: rules, logger: logger}
}

// ExtractField runs the rules for field over text. The boolean is false
// when no rule produced a non-empty value.
func (e *Extractor) ExtractField(text, field string) (string, bool) {
	for _, r := range e.rules.Rules(field) {
		if v, ok := applyRule(r, text); ok {
			return v, true
		}
	}
	return "", false
}

func applyRule(r Rule, text string) (string, bool) {
	m := r.Pattern.FindStringSubmatchIndex(text)
	if m == nil || m[2*r.Group] < 0 {
		return "", false
	}
	value := text[m[2*r.Group]:m[2*r.Group+1]]
	if r.Stop != nil {
		if loc := r.Stop.FindStringIndex(value); loc != nil {
			value = value[:loc[0]]
		}
	}
	value = textnorm.Flatten(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Extract normalizes text and runs the metadata pass and the section pass
// concurrently over it.
func (e *Extractor) Extract(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	norm := textnorm.NormalizeBody(text)

	var meta, sections map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meta = make(map[string]string, len(e.rules.fields))
		for _, field := range e.rules.Fields() {
			if err := gctx.Err(); err != nil {
				return err
			}
			if v, ok := e.ExtractField(norm, field); ok {
				meta[field] = v
			}
		}
		return nil
	})
	g.Go(func() error {
		sections = make(map[string]string, 3)
		if v, ok := FrenchSummary(norm); ok {
			sections[constants.FieldResumeFrancais] = v
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		if v, ok := ArabicSummary(norm); ok {
			sections[constants.FieldResumeArabe] = v
		}
		if v, ok := FullText(norm); ok {
			sections[constants.FieldTexteIntegral] = v
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Fields: meta, Text: norm}
	for k, v := range sections {
		res.Fields[k] = v
	}
	if _, ok := res.Fields[constants.FieldTitre]; !ok {
		if theme, ok := res.Fields[constants.FieldTheme]; ok {
			res.Fields[constants.FieldTitre] = theme
		}
	}
	if raw, ok := res.Fields[constants.FieldDateDecision]; ok {
		if t, ok := ParseDate(raw); ok {
			res.DecisionDate = &t
		}
	}

	e.logger.Debug("extract.fields.ok",
		"ref", res.Ref(),
		"found", len(res.Fields),
		"missing", len(res.Missing()),
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}
