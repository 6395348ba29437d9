package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/jurisprudence/internal/cases"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/extract"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
)

// CaseCreator persists a prepared record; *cases.Builder implements it.
type CaseCreator interface {
	Create(ctx context.Context, c *entity.Case, actor int64) (*entity.Case, error)
}

// Outcome is everything learned about one file. Result is set as soon as
// extraction ran, even when the file then failed to persist.
type Outcome struct {
	Filename string
	Text     extract.TextResult
	Result   *extract.Result
	Fill     llm.FillResult
	Case     *entity.Case
}

// Processor coordinates text extraction, field extraction and persistence
// for one file at a time.
type Processor struct {
	Logger  *slog.Logger
	Text    *TextStage
	Fields  *FieldStage
	Cases   CaseCreator
	Timeout time.Duration // per file; 0 = none
}

func NewProcessor(logger *slog.Logger, text *TextStage, fields *FieldStage, creator CaseCreator, timeout time.Duration) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Fields: fields, Cases: creator, Timeout: timeout}
}

// Inspect runs extraction without persisting anything.
func (p *Processor) Inspect(ctx context.Context, path string) (*Outcome, error) {
	ctx, cancel := common.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return p.inspect(ctx, path)
}

func (p *Processor) inspect(ctx context.Context, path string) (*Outcome, error) {
	out := &Outcome{Filename: filepath.Base(path)}
	txt, err := p.Text.Run(ctx, path)
	out.Text = txt
	if err != nil {
		return out, p.timeoutAware(ctx, err)
	}
	res, fill, err := p.Fields.Run(ctx, txt.Text, out.Filename)
	out.Fill = fill
	if err != nil {
		return out, p.timeoutAware(ctx, err)
	}
	out.Result = res
	return out, nil
}

// ProcessFile extracts path and stores it as a case whose pdf_file_path is
// path. The whole file is bounded by Timeout.
func (p *Processor) ProcessFile(ctx context.Context, path string, actor int64) (*Outcome, error) {
	start := time.Now()
	ctx, cancel := common.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := p.inspect(ctx, path)
	if err != nil {
		p.Logger.Error("pipeline.file.extract_failed", "filename", out.Filename, "error", err)
		return out, err
	}

	rec := cases.Prepare(*out.Result, path)
	c, err := p.Cases.Create(ctx, rec, actor)
	if err != nil {
		err = p.timeoutAware(ctx, err)
		p.Logger.Warn("pipeline.file.rejected", "filename", out.Filename, "ref", rec.Ref, "error", err)
		return out, err
	}
	out.Case = c
	p.Logger.Info("pipeline.file.ok",
		"filename", out.Filename,
		"id", c.ID,
		"ref", c.Ref,
		"fill", out.Fill.Status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Processor) timeoutAware(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return common.NewAppError("TIMEOUT", fmt.Sprintf("file processing exceeded %s", p.Timeout), errors.Join(context.DeadlineExceeded, err))
	}
	return err
}
