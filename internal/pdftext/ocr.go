package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// tesseract renders stray table borders as runs of these
var reBoxNoise = regexp.MustCompile(`[|_]{3,}`)

func (e *Extractor) ocrFallback(ctx context.Context, path string, start time.Time, warns []string) (Result, error) {
	text, pages, w, err := e.pdfToOCR(ctx, path)
	warns = append(warns, w...)
	res := Result{Text: text, Pages: pages, Method: MethodOCR, Warnings: warns, Duration: time.Since(start)}
	if err != nil {
		e.logger.Error("pdftext.ocr.failed", "path", path, "error", err)
		return res, fmt.Errorf("ocr: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return res, ErrNoText
	}
	e.logger.Info("pdftext.ocr.ok", "path", path, "pages", pages, "chars", len(text), "lang", e.cfg.TesseractLang)
	return res, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "juris-ocr-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("pdftext.ocr.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, append(args, path, prefix)...)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// page-1.png, page-2.png, ... zero padded by pdftoppm when needed
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		if err := ctx.Err(); err != nil {
			return "", 0, warns, err
		}
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			warns = append(warns, filepath.Base(img)+": "+err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), warns, nil
}

func (e *Extractor) tesseract(ctx context.Context, img string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{img, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(strings.TrimSpace(string(errb)), 200))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
