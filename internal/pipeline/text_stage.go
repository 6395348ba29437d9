package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/jurisprudence/internal/extract"
	"github.com/joseph-ayodele/jurisprudence/internal/textnorm"
)

// TextStage turns one PDF into normalized text.
type TextStage struct {
	Source extract.TextSource
	Logger *slog.Logger
}

func NewTextStage(src extract.TextSource, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{Source: src, Logger: logger}
}

// Run extracts and normalizes the text of path.
func (s *TextStage) Run(ctx context.Context, path string) (extract.TextResult, error) {
	res, err := s.Source.Extract(ctx, path)
	if err != nil {
		return res, fmt.Errorf("extract text: %w", err)
	}
	res.Text = textnorm.NormalizeBody(res.Text)
	if res.Text == "" {
		return res, fmt.Errorf("extract text: %s: no text after normalization", filepath.Base(path))
	}
	s.Logger.Info("pipeline.text.ok",
		"filename", filepath.Base(path),
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
