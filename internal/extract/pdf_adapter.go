package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/jurisprudence/internal/pdftext"
)

// PDFAdapter exposes a pdftext.Extractor as a TextSource.
type PDFAdapter struct {
	extractor *pdftext.Extractor
	logger    *slog.Logger
}

func NewPDFAdapter(e *pdftext.Extractor, l *slog.Logger) *PDFAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &PDFAdapter{
		extractor: e,
		logger:    l,
	}
}

func (a *PDFAdapter) Extract(ctx context.Context, path string) (TextResult, error) {
	r, err := a.extractor.Extract(ctx, path)
	if err != nil {
		return TextResult{Warnings: r.Warnings, Duration: r.Duration}, err
	}
	return TextResult{
		Text:     r.Text,
		Pages:    r.Pages,
		Method:   r.Method,
		Duration: r.Duration,
		Warnings: r.Warnings,
	}, nil
}
