package pdftext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

type fakeRunner struct {
	stdout []byte
	err    error
	calls  []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	return f.stdout, []byte("stderr"), f.err
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtractRejectsNonPDF(t *testing.T) {
	e := NewExtractorWithRunner(Config{}, &fakeRunner{}, nil)
	_, err := e.Extract(context.Background(), writeFile(t, "notes.txt", []byte("hello")))
	if !errors.Is(err, common.ErrUnsupportedFile) {
		t.Fatalf("err = %v, want ErrUnsupportedFile", err)
	}
}

func TestExtractFallsBackToPdftotext(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("Ref : 101\nTitre : X\f")}
	e := NewExtractorWithRunner(Config{Pdftotext: "/usr/bin/pdftotext"}, runner, nil)

	// not a parseable PDF, so the native reader fails
	res, err := e.Extract(context.Background(), writeFile(t, "a.pdf", []byte("garbage")))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != MethodPdftotext || res.Pages != 1 {
		t.Fatalf("method=%s pages=%d", res.Method, res.Pages)
	}
	if !strings.Contains(res.Text, "Ref : 101") {
		t.Fatalf("text = %q", res.Text)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a warning about the native reader")
	}
	if len(runner.calls) != 1 || !strings.HasPrefix(runner.calls[0], "/usr/bin/pdftotext -layout -enc UTF-8 -eol unix ") {
		t.Fatalf("calls = %v", runner.calls)
	}
}

func TestExtractNoText(t *testing.T) {
	e := NewExtractorWithRunner(Config{}, &fakeRunner{stdout: []byte(" \f ")}, nil)
	_, err := e.Extract(context.Background(), writeFile(t, "blank.pdf", []byte("garbage")))
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}

	e = NewExtractorWithRunner(Config{DisableFallback: true}, &fakeRunner{}, nil)
	_, err = e.Extract(context.Background(), writeFile(t, "blank.pdf", []byte("garbage")))
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
}

func TestExtractRunnerError(t *testing.T) {
	e := NewExtractorWithRunner(Config{}, &fakeRunner{err: errors.New("exit status 1")}, nil)
	if _, err := e.Extract(context.Background(), writeFile(t, "x.pdf", []byte("garbage"))); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadPlainTextRecoversFromBadInput(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("%PDF-1.4\n%%EOF"), []byte("%PDF-1.7 trailer << /Root 1 0 R >>")} {
		if _, _, err := readPlainText(in, 0); err == nil {
			t.Errorf("readPlainText(%q) returned no error", in)
		}
	}
}

func TestExtractCancelled(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("text")}
	e := NewExtractorWithRunner(Config{}, runner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Extract(ctx, writeFile(t, "x.pdf", []byte("garbage")))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("pdftotext should not run after cancellation")
	}
}

// scanRunner imitates poppler and tesseract on a two page scan.
type scanRunner struct {
	calls []string
}

func (s *scanRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name)
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for _, p := range []string{"-1.png", "-2.png"} {
			if err := os.WriteFile(prefix+p, []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if strings.HasSuffix(args[0], "-2.png") {
			return []byte("Texte intégral ||||| suite"), nil, nil
		}
		return []byte("Ref : 77"), nil, nil
	}
	return []byte("\f"), nil, nil
}

func TestExtractOCRFallback(t *testing.T) {
	runner := &scanRunner{}
	e := NewExtractorWithRunner(Config{OCR: true}, runner, nil)
	res, err := e.Extract(context.Background(), writeFile(t, "scan.pdf", []byte("garbage")))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != MethodOCR || res.Pages != 2 {
		t.Fatalf("method=%s pages=%d", res.Method, res.Pages)
	}
	if !strings.HasPrefix(res.Text, "Ref : 77\n\f\n") || strings.Contains(res.Text, "|||") {
		t.Fatalf("text = %q", res.Text)
	}
	want := []string{"pdftotext", "pdftoppm", "tesseract", "tesseract"}
	if strings.Join(runner.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v", runner.calls)
	}

	runner = &scanRunner{}
	e = NewExtractorWithRunner(Config{}, runner, nil)
	if _, err := e.Extract(context.Background(), writeFile(t, "scan.pdf", []byte("garbage"))); !errors.Is(err, ErrNoText) {
		t.Fatalf("without OCR err = %v", err)
	}
}
