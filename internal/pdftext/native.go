package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type nativeOut struct {
	text  string
	pages int
	err   error
}

// native runs the pure-Go reader. The reader has no context support, so it
// runs in its own goroutine and the call returns as soon as ctx is done.
func (e *Extractor) native(ctx context.Context, content []byte) (string, int, error) {
	done := make(chan nativeOut, 1)
	go func() {
		text, pages, err := readPlainText(content, e.cfg.MaxPages)
		done <- nativeOut{text: text, pages: pages, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", 0, ctx.Err()
	case out := <-done:
		return out.text, out.pages, out.err
	}
}

// readPlainText extracts page text in page order, separating pages with a
// blank line. Malformed files can make the reader panic.
func readPlainText(content []byte, maxPages int) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	if len(content) == 0 {
		return "", 0, fmt.Errorf("empty pdf content")
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	pages = r.NumPage()
	limit := pages
	if maxPages > 0 && limit > maxPages {
		limit = maxPages
	}

	var b strings.Builder
	for i := 1; i <= limit; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pt, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		pt = strings.TrimSpace(pt)
		if pt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pt)
	}
	return b.String(), pages, nil
}
