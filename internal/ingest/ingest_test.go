package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "b.pdf"), "same")
	write(t, filepath.Join(root, "a.PDF"), "one")
	write(t, filepath.Join(root, "sub", "c.pdf"), "same")
	write(t, filepath.Join(root, "notes.txt"), "x")
	write(t, filepath.Join(root, ".hidden", "d.pdf"), "hidden")

	got, stats, err := NewCollector(true, quietLogger()).Collect(context.Background(), root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Matched != 3 || stats.Unique != 2 || stats.Duplicates != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(got) != 3 {
		t.Fatalf("candidates = %+v", got)
	}
	if filepath.Base(got[0].Path) != "a.PDF" || got[0].Size != 3 {
		t.Errorf("first = %+v", got[0])
	}
	if got[2].DuplicateOf != filepath.Join(root, "b.pdf") {
		t.Errorf("duplicate = %+v", got[2])
	}

	_, stats, err = NewCollector(false, quietLogger()).Collect(context.Background(), root)
	if err != nil || stats.Matched != 4 {
		t.Errorf("with hidden: stats = %+v err = %v", stats, err)
	}
}

func TestCollectBadRoot(t *testing.T) {
	c := NewCollector(true, quietLogger())
	if _, _, err := c.Collect(context.Background(), ""); err == nil {
		t.Error("empty root accepted")
	}
	f := filepath.Join(t.TempDir(), "x.pdf")
	write(t, f, "x")
	if _, _, err := c.Collect(context.Background(), f); err == nil {
		t.Error("file root accepted")
	}
}

func TestWatcherEmitsNewPDFs(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "old.pdf"), "x")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ev, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 50 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}
	next := func() string {
		select {
		case p := <-ev:
			return filepath.Base(p)
		case <-time.After(5 * time.Second):
			t.Fatal("no event")
			return ""
		}
	}
	if got := next(); got != "old.pdf" {
		t.Errorf("initial = %q", got)
	}
	write(t, filepath.Join(root, "skip.txt"), "x")
	write(t, filepath.Join(root, "new.pdf"), "y")
	if got := next(); got != "new.pdf" {
		t.Errorf("event = %q", got)
	}
}
