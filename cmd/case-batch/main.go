package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jurisprudence/internal/app"
	"github.com/joseph-ayodele/jurisprudence/internal/async"
	"github.com/joseph-ayodele/jurisprudence/internal/batch"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/export"
	"github.com/joseph-ayodele/jurisprudence/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir     = flag.String("dir", "", "directory of PDF decisions to import (required)")
		out     = flag.String("out", "", "output XLSX report path (defaults to <dir>/../import_report.xlsx)")
		window  = flag.Int("window", 0, "files per processing window (defaults to BATCH_DEFAULT_WINDOW)")
		actor   = flag.Int64("user", 0, "user id recorded as the creator")
		watch   = flag.Bool("watch", false, "after the import, keep watching -dir and import new PDFs")
		workers = flag.Int("workers", 2, "concurrent imports in -watch mode")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "import_report.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithActorID(ctx, *actor)

	cfg := common.LoadConfig()
	a, err := app.New(ctx, cfg, app.Options{InMemory: *inmem}, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Collect and dedupe by content
	candidates, stats, err := ingest.NewCollector(true, logger).Collect(ctx, *dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	files := make([]batch.UploadFile, 0, stats.Unique)
	for _, c := range candidates {
		if c.Err != "" || c.DuplicateOf != "" {
			continue
		}
		path := c.Path
		files = append(files, batch.UploadFile{
			Name: filepath.Base(path),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"unique", stats.Unique,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed)

	var success, failures int
	if len(files) > 0 {
		success, failures, err = runBatches(ctx, a.Batch, files, cfg.Batch.MaxFiles, *window, *actor, *out, logger)
		if err != nil {
			logger.Error("batch import failed", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Import complete!\n")
	fmt.Printf("- PDFs found: %d (%d duplicates skipped)\n", stats.Matched, stats.Duplicates)
	fmt.Printf("- Cases created: %d\n", success)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Report: %s\n", *out)

	if *watch {
		if err := watchDir(ctx, a.Batch, *dir, *actor, *workers, cfg.Extract.Timeout, logger); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
	}
}

// runBatches uploads files in chunks of at most maxFiles and drives each
// batch window by window, writing one report row per file.
func runBatches(ctx context.Context, orch *batch.Orchestrator, files []batch.UploadFile, maxFiles, window int, actor int64, out string, logger *slog.Logger) (int, int, error) {
	var success, failures int
	var reports [][]byte
	for start := 0; start < len(files); start += maxFiles {
		chunk := files[start:min(start+maxFiles, len(files))]
		up, err := orch.Upload(ctx, chunk, actor)
		if err != nil {
			return success, failures, err
		}
		failures += len(up.Errors)
		for _, msg := range up.Errors {
			logger.Warn("upload rejected", "error", msg)
		}

		for {
			res, err := orch.Process(ctx, batch.ProcessRequest{BatchID: up.BatchID, BatchSize: window}, actor)
			if err != nil {
				return success, failures, err
			}
			success += res.Success
			failures += res.ErrorsCount
			logger.Info("window processed", "batch_id", up.BatchID, "start", res.StartIndex, "end", res.EndIndex, "success", res.Success, "errors", res.ErrorsCount)
			if !res.HasMore {
				break
			}
		}

		results, err := orch.Results(ctx, up.BatchID)
		if err != nil {
			return success, failures, err
		}
		report, err := export.BatchReportXLSX(up.BatchID, results)
		if err != nil {
			return success, failures, err
		}
		reports = append(reports, report)
		if err := orch.Cleanup(ctx, up.BatchID); err != nil {
			logger.Warn("cleanup failed", "batch_id", up.BatchID, "error", err)
		}
	}

	for i, report := range reports {
		path := out
		if i > 0 {
			ext := filepath.Ext(out)
			path = fmt.Sprintf("%s_%d%s", out[:len(out)-len(ext)], i+1, ext)
		}
		if err := os.WriteFile(path, report, 0o644); err != nil {
			return success, failures, err
		}
	}
	return success, failures, nil
}

func watchDir(ctx context.Context, orch *batch.Orchestrator, dir string, actor int64, workers int, timeout time.Duration, logger *slog.Logger) error {
	q := async.NewProcessorQueue(orch, logger, async.WithWorkers(workers), async.WithProcessTimeout(timeout))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		q.Shutdown(shutdownCtx)
	}()

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:  []string{dir},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	logger.Info("watching for new PDFs", "dir", dir)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			job := async.Job{Path: path, Actor: actor, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
