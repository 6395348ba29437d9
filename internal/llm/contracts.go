package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by providers that have no credential.
var ErrNotConfigured = errors.New("llm: provider not configured")

// FillStatus says how a field-filling call ended.
type FillStatus string

const (
	FillOK       FillStatus = "OK"
	FillSkipped  FillStatus = "SKIPPED"   // not configured or nothing to fill
	FillFailed   FillStatus = "FAILED"    // transport, status or reply-format failure
	FillTimedOut FillStatus = "TIMED_OUT" // the bounded deadline expired
)

// FillRequest asks for the fields the rule-based pass left empty.
type FillRequest struct {
	Text     string
	Missing  []string
	Filename string
}

// FillResult is the outcome of FillMissing. Fields is never nil; it is
// empty unless Status is FillOK. Err carries the cause for logs and tests.
type FillResult struct {
	Fields map[string]string
	Status FillStatus
	Err    error
}

// FieldFiller fills missing metadata from document text. It never blocks
// past its own deadline and never fails the caller.
type FieldFiller interface {
	FillMissing(ctx context.Context, req FillRequest) FillResult
}

// NoopFiller is used when no LLM credential is configured.
type NoopFiller struct{}

func (NoopFiller) FillMissing(context.Context, FillRequest) FillResult {
	return Skipped()
}

// Skipped is the result for a call that was not attempted.
func Skipped() FillResult {
	return FillResult{Fields: map[string]string{}, Status: FillSkipped}
}

// Failed wraps err as a failed fill.
func Failed(err error) FillResult {
	return FillResult{Fields: map[string]string{}, Status: FillFailed, Err: err}
}

// TimedOut wraps err as a timed-out fill.
func TimedOut(err error) FillResult {
	return FillResult{Fields: map[string]string{}, Status: FillTimedOut, Err: err}
}

// CaseDigest is the slice of a case shown to the ranking model.
type CaseDigest struct {
	Ref            string
	Titre          string
	Juridiction    string
	DateDecision   string
	Theme          string
	MotsCles       string
	ResumeFrancais string
	ResumeArabe    string
}

// RankRequest asks which of Cases resemble Query. TotalCases is the size of
// the whole corpus Cases was sampled from.
type RankRequest struct {
	Query      string
	Cases      []CaseDigest
	TotalCases int
}

// RankResult is the model's answer. When the reply held no JSON, Parsed is
// false and Analysis holds the raw reply.
type RankResult struct {
	SimilarRefs     []string
	Reasons         map[string]string
	Analysis        string
	Recommendations string
	Model           string
	Parsed          bool
}

// SimilarityRanker ranks a case corpus against a free-text query.
type SimilarityRanker interface {
	Rank(ctx context.Context, req RankRequest) (RankResult, error)
	// RankStream is Rank with incremental reply text passed to onDelta.
	RankStream(ctx context.Context, req RankRequest, onDelta func(string)) (RankResult, error)
}
