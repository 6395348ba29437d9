// Package pdftext turns PDF files into plain text.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

const (
	MethodNative    = "pdf-native"
	MethodPdftotext = "pdftotext"
	MethodOCR       = "pdf-ocr"
)

// ErrNoText is returned when no strategy produced any text.
var ErrNoText = errors.New("pdf has no extractable text")

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	// DisableFallback skips pdftotext when the native reader finds nothing.
	DisableFallback bool
	MaxPages        int // 0 = no limit

	// OCR rasterizes scanned PDFs with pdftoppm and reads them with
	// tesseract when no text layer exists.
	OCR           bool
	Pdftoppm      string // if empty -> "pdftoppm"
	Tesseract     string // if empty -> "tesseract"
	TesseractLang string // default "fra+ara"
	TessdataDir   string
	DPI           int // default 300
}

type Result struct {
	Text     string
	Pages    int
	Method   string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, execRunner{}, logger)
}

// NewExtractorWithRunner is NewExtractor with a custom command runner.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "fra+ara"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract reads the PDF at path with the native reader and falls back to
// pdftotext when that yields nothing.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return Result{}, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported extension %q", ext), common.ErrUnsupportedFile)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}

	var warns []string
	text, pages, err := e.native(ctx, content)
	if err == nil && strings.TrimSpace(text) != "" {
		e.logger.Debug("pdftext.native.ok", "path", path, "pages", pages, "chars", len(text))
		return Result{Text: text, Pages: pages, Method: MethodNative, Duration: time.Since(start)}, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Duration: time.Since(start)}, ctxErr
		}
		warns = append(warns, "native: "+err.Error())
		e.logger.Warn("pdftext.native.failed", "path", path, "error", err)
	} else {
		warns = append(warns, "native: empty text layer")
	}

	if e.cfg.DisableFallback {
		return Result{Pages: pages, Warnings: warns, Duration: time.Since(start)}, ErrNoText
	}

	text, pages, w, err := e.pdfToText(ctx, path)
	warns = append(warns, w...)
	res := Result{Text: text, Pages: pages, Method: MethodPdftotext, Warnings: warns, Duration: time.Since(start)}
	if err != nil {
		e.logger.Error("pdftext.pdftotext.failed", "path", path, "error", err)
		return res, fmt.Errorf("pdftotext: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		if !e.cfg.OCR {
			return res, ErrNoText
		}
		return e.ocrFallback(ctx, path, start, append(warns, "pdftotext: empty text layer"))
	}
	e.logger.Debug("pdftext.pdftotext.ok", "path", path, "pages", pages, "chars", len(text))
	return res, nil
}
