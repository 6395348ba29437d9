package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/pipeline"
	"github.com/joseph-ayodele/jurisprudence/internal/repository"
)

const maxIDAttempts = 16

// FileProcessor runs one stored PDF through extraction and persistence;
// *pipeline.Processor implements it.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string, actor int64) (*pipeline.Outcome, error)
}

// UploadFile is one file offered for import. Open is called at most once.
type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

type Config struct {
	MaxFiles      int
	DefaultWindow int
	LeaseTTL      time.Duration
}

// Orchestrator drives client-polled batch imports. The cursor lives on the
// server; each Process call handles one window under a lease.
type Orchestrator struct {
	store  *Store
	repo   repository.BatchRepository
	proc   FileProcessor
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewOrchestrator(store *Store, repo repository.BatchRepository, proc FileProcessor, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 200
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = 10
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 10 * time.Minute
	}
	return &Orchestrator{store: store, repo: repo, proc: proc, cfg: cfg, logger: logger, now: time.Now}
}

type UploadedFile struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Status   string `json:"status"`
}

type UploadResult struct {
	BatchID       string         `json:"batch_id"`
	UploadedCount int            `json:"uploaded_count"`
	UploadedFiles []UploadedFile `json:"uploaded_files"`
	Errors        []string       `json:"errors"`
}

// Upload stores files under a new batch. Too many files rejects the whole
// set; a non-PDF only rejects that file.
func (o *Orchestrator) Upload(ctx context.Context, files []UploadFile, actor int64) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, common.InvalidInputf("Aucun fichier fourni")
	}
	if len(files) > o.cfg.MaxFiles {
		return nil, common.NewAppError("BATCH_TOO_LARGE",
			fmt.Sprintf("Maximum %d fichiers par lot", o.cfg.MaxFiles), common.ErrBatchTooLarge)
	}

	id, err := o.newBatchDir()
	if err != nil {
		return nil, err
	}

	res := &UploadResult{BatchID: id, UploadedFiles: []UploadedFile{}, Errors: []string{}}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		name := SanitizeFilename(f.Name)
		if name == "" || !IsPDF(name) {
			if f.Name != "" {
				res.Errors = append(res.Errors, f.Name+": Format non valide")
			}
			continue
		}
		if seen[name] {
			res.Errors = append(res.Errors, name+": fichier en double dans le lot")
			continue
		}
		seen[name] = true
		path, err := o.save(id, name, f)
		if err != nil {
			o.logger.Warn("batch.upload.file_failed", "batch_id", id, "filename", name, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		res.UploadedFiles = append(res.UploadedFiles, UploadedFile{Filename: name, Filepath: path, Status: "uploaded"})
	}
	res.UploadedCount = len(res.UploadedFiles)

	if res.UploadedCount == 0 {
		_ = o.store.Remove(id)
		return nil, common.InvalidInputf("Aucun fichier PDF valide: %s", strings.Join(res.Errors, "; "))
	}

	now := o.now().UTC()
	err = o.repo.Create(ctx, &entity.Batch{
		ID:         id,
		TotalFiles: res.UploadedCount,
		Status:     constants.BatchStatusCreated,
		CreatedBy:  actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		_ = o.store.Remove(id)
		return nil, err
	}

	o.logger.Info("batch.upload.ok", "batch_id", id, "uploaded", res.UploadedCount, "rejected", len(res.Errors))
	return res, nil
}

func (o *Orchestrator) save(id, name string, f UploadFile) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return o.store.Save(id, name, rc)
}

// newBatchDir reserves batch_<unix nanoseconds>, moving to the next
// nanosecond while the directory already exists.
func (o *Orchestrator) newBatchDir() (string, error) {
	base := o.now().UnixNano()
	for i := int64(0); i < maxIDAttempts; i++ {
		id := fmt.Sprintf("batch_%d", base+i)
		err := o.store.Create(id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create batch dir: %w", err)
		}
	}
	return "", common.Conflictf("could not allocate a batch id")
}

type ProcessRequest struct {
	BatchID string `json:"batch_id"`
	// StartIndex, when set, must equal the server cursor.
	StartIndex *int `json:"start_index"`
	BatchSize  int  `json:"batch_size"`
}

type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type FileDetail struct {
	Filename string `json:"filename"`
	Ref      string `json:"ref"`
	Titre    string `json:"titre"`
	CaseID   int64  `json:"case_id"`
}

type ProcessResult struct {
	BatchID     string       `json:"batch_id"`
	TotalFiles  int          `json:"total_files"`
	StartIndex  int          `json:"start_index"`
	EndIndex    int          `json:"end_index"`
	Processed   int          `json:"processed"`
	Success     int          `json:"success"`
	ErrorsCount int          `json:"errors_count"`
	Errors      []FileError  `json:"errors"`
	Details     []FileDetail `json:"details"`
	HasMore     bool         `json:"has_more"`
	NextIndex   *int         `json:"next_index"`
}

// Process handles the next window of a batch. Per-file failures are part
// of the result; only batch-level problems are returned as errors: unknown
// batch (ErrNotFound), a concurrent call, a locked batch or a stale
// start index (ErrConflict).
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest, actor int64) (*ProcessResult, error) {
	if strings.TrimSpace(req.BatchID) == "" {
		return nil, common.InvalidInputf("batch_id requis")
	}
	window := req.BatchSize
	if window <= 0 {
		window = o.cfg.DefaultWindow
	}
	if window > o.cfg.MaxFiles {
		window = o.cfg.MaxFiles
	}
	id := req.BatchID
	ctx = common.WithBatchID(ctx, id)

	owner := uuid.NewString()
	b, err := o.repo.AcquireLease(ctx, id, owner, o.now(), o.cfg.LeaseTTL)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if err := o.repo.ReleaseLease(context.WithoutCancel(ctx), id, owner); err != nil {
				o.logger.Error("batch.process.release_failed", "batch_id", id, "error", err)
			}
		}
	}()

	if req.StartIndex != nil && *req.StartIndex != b.Cursor {
		return nil, common.Conflictf("start_index %d does not match batch cursor %d", *req.StartIndex, b.Cursor)
	}

	names, err := o.store.List(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.NotFoundf("Batch non trouvé")
		}
		return nil, fmt.Errorf("list batch files: %w", err)
	}

	start := min(b.Cursor, len(names))
	end := min(start+window, len(names))
	res := &ProcessResult{
		BatchID:    id,
		TotalFiles: len(names),
		StartIndex: start,
		Errors:     []FileError{},
		Details:    []FileDetail{},
	}

	o.logger.Info("batch.process.window", "batch_id", id, "start", start, "end", end, "total", len(names))
	wctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stopRenew := o.holdLease(wctx, cancel, id, owner)

	results := make([]entity.BatchFileResult, 0, end-start)
	pos := start
	for ; pos < end; pos++ {
		if wctx.Err() != nil {
			break
		}
		name := names[pos]
		fr := entity.BatchFileResult{BatchID: id, Position: pos, Filename: name}
		out, err := o.proc.ProcessFile(wctx, o.store.Path(id, name), actor)
		fr.At = o.now().UTC()
		if err != nil {
			fr.Error = common.UserMessage(err)
			if out != nil && out.Result != nil {
				fr.Ref = out.Result.Ref()
			}
			res.Errors = append(res.Errors, FileError{Filename: name, Error: fr.Error})
			o.logger.Warn("batch.process.file_failed", "batch_id", id, "position", pos, "filename", name, "error", err)
		} else {
			fr.OK = true
			fr.CaseID = out.Case.ID
			fr.Ref = out.Case.Ref
			fr.Titre = out.Case.Titre
			res.Success++
			res.Details = append(res.Details, FileDetail{Filename: name, Ref: out.Case.Ref, Titre: out.Case.Titre, CaseID: out.Case.ID})
		}
		res.Processed++
		results = append(results, fr)
	}
	stopRenew()

	// Commit whatever ran, even if the context ended mid-window: those files
	// are already persisted and must not be visited again.
	status := constants.StatusForCursor(pos, len(names))
	if err := o.repo.Advance(context.WithoutCancel(ctx), id, owner, b.Cursor, pos, status, results); err != nil {
		return nil, err
	}
	committed = true

	res.EndIndex = pos
	res.ErrorsCount = len(res.Errors)
	res.HasMore = pos < len(names)
	if res.HasMore {
		next := pos
		res.NextIndex = &next
	}
	o.logger.Info("batch.process.ok",
		"batch_id", id,
		"processed", res.Processed,
		"success", res.Success,
		"errors", res.ErrorsCount,
		"next_index", pos,
		"status", status,
	)
	if err := context.Cause(wctx); err != nil && pos < end {
		return res, fmt.Errorf("batch window interrupted at %d: %w", pos, err)
	}
	return res, nil
}

// holdLease renews the window's lease every third of its TTL until the
// returned stop func is called. Losing the lease cancels the window.
func (o *Orchestrator) holdLease(ctx context.Context, cancel context.CancelCauseFunc, id, owner string) func() {
	every := o.cfg.LeaseTTL / 3
	if every <= 0 {
		every = time.Millisecond
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				if err := o.repo.RenewLease(ctx, id, owner, o.now(), o.cfg.LeaseTTL); err != nil {
					if ctx.Err() != nil {
						return
					}
					o.logger.Error("batch.process.lease_lost", "batch_id", id, "error", err)
					cancel(err)
					return
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

type StatusResult struct {
	BatchID     string                `json:"batch_id"`
	TotalFiles  int                   `json:"total_files"`
	Files       []string              `json:"files"`
	Status      constants.BatchStatus `json:"status"`
	Cursor      int                   `json:"cursor"`
	Remaining   int                   `json:"remaining"`
	ErrorsCount int                   `json:"errors_count"`
}

func (o *Orchestrator) Status(ctx context.Context, batchID string) (*StatusResult, error) {
	b, err := o.repo.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	files, err := o.store.List(batchID)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("list batch files: %w", err)
	}
	if files == nil {
		files = []string{}
	}
	results, err := o.repo.FileResults(ctx, batchID)
	if err != nil {
		return nil, err
	}
	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	return &StatusResult{
		BatchID:     b.ID,
		TotalFiles:  len(files),
		Files:       files,
		Status:      b.Status,
		Cursor:      b.Cursor,
		Remaining:   b.Remaining(),
		ErrorsCount: failed,
	}, nil
}

// Results returns the recorded per-file outcomes of a batch.
func (o *Orchestrator) Results(ctx context.Context, batchID string) ([]entity.BatchFileResult, error) {
	if _, err := o.repo.Get(ctx, batchID); err != nil {
		return nil, err
	}
	return o.repo.FileResults(ctx, batchID)
}

// Cleanup locks the batch, then deletes its files and state. Locking fails
// with ErrConflict while a window is running.
func (o *Orchestrator) Cleanup(ctx context.Context, batchID string) error {
	if err := o.repo.Lock(ctx, batchID, o.now()); err != nil {
		return err
	}
	if err := o.store.Remove(batchID); err != nil {
		return common.NewAppError("CLEANUP_FAILED", fmt.Sprintf("Erreur lors du nettoyage: %v", err), err)
	}
	if err := o.repo.Delete(ctx, batchID); err != nil {
		return err
	}
	o.logger.Info("batch.cleanup.ok", "batch_id", batchID)
	return nil
}

// ImportSingle stores one PDF outside any batch and runs it through the
// processor. The stored file is removed again if the import fails.
func (o *Orchestrator) ImportSingle(ctx context.Context, f UploadFile, actor int64) (*pipeline.Outcome, error) {
	if !IsPDF(f.Name) {
		return nil, common.NewAppError("INVALID_INPUT", "Fichier PDF requis", common.ErrUnsupportedFile)
	}
	name := SanitizeFilename(f.Name)
	if !IsPDF(name) {
		name = "document.pdf"
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	path, err := o.store.SaveSingle(fmt.Sprintf("%d", o.now().Unix()), name, rc)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	out, err := o.proc.ProcessFile(ctx, path, actor)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			o.logger.Warn("batch.single.remove_failed", "path", path, "error", rmErr)
		}
		return out, err
	}
	o.logger.Info("batch.single.ok", "filename", name, "ref", out.Case.Ref, "id", out.Case.ID)
	return out, nil
}

// ImportPath imports a PDF already on disk, such as one dropped into a
// watched folder. The source file is left in place.
func (o *Orchestrator) ImportPath(ctx context.Context, path string) error {
	_, err := o.ImportSingle(ctx, UploadFile{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, common.ActorIDFromContext(ctx))
	return err
}
