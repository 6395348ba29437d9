package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/jurisprudence/constants"
)

// TextSource is stage 1: file -> raw text.
type TextSource interface {
	Extract(ctx context.Context, path string) (TextResult, error)
}

// TextResult is what a TextSource produced for one file.
type TextResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-native" | "pdftotext"
	Duration time.Duration
	Warnings []string
}

// Result is stage 2 output: the fields found in one document. Absent fields
// have no key; a present key never maps to an empty string.
type Result struct {
	Fields map[string]string
	// DecisionDate is the parsed date_decision, nil when absent or unparseable.
	DecisionDate *time.Time
	// Text is the normalized text the fields were read from.
	Text string
}

// Get returns a field and whether it was found.
func (r *Result) Get(field string) (string, bool) {
	if r == nil || r.Fields == nil {
		return "", false
	}
	v, ok := r.Fields[field]
	return v, ok
}

// Ref is shorthand for the reference number.
func (r *Result) Ref() string {
	v, _ := r.Get(constants.FieldRef)
	return v
}

// Missing lists the metadata fields that were not found.
func (r *Result) Missing() []string {
	var out []string
	for _, f := range constants.MetadataFields {
		if _, ok := r.Get(f); !ok {
			out = append(out, f)
		}
	}
	return out
}

// Set stores a non-empty value; empty values delete the key.
func (r *Result) Set(field, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	if value == "" {
		delete(r.Fields, field)
		return
	}
	r.Fields[field] = value
}
