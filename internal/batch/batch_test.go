package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/cases"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/encryption"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/extract"
	"github.com/joseph-ayodele/jurisprudence/internal/pipeline"
	"github.com/joseph-ayodele/jurisprudence/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openDB(t *testing.T) *repository.DB {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, "", quietLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close(quietLogger()) })
	if err := db.Migrate(ctx, quietLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// refProc treats the file content as the reference number.
type refProc struct {
	mu   sync.Mutex
	seen []string
	refs map[string]bool
}

func (p *refProc) ProcessFile(_ context.Context, path string, _ int64) (*pipeline.Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	name := filepath.Base(path)
	p.seen = append(p.seen, name)
	out := &pipeline.Outcome{Filename: name}
	ref := strings.TrimSpace(string(data))
	if ref == "" {
		return out, common.NewAppError("MISSING_REFERENCE", "Impossible d'extraire la référence (ref)", common.ErrMissingRef)
	}
	if p.refs == nil {
		p.refs = map[string]bool{}
	}
	if p.refs[ref] {
		return out, &cases.DuplicateError{Ref: ref}
	}
	p.refs[ref] = true
	out.Case = &entity.Case{ID: int64(len(p.refs)), Ref: ref, Titre: "Document " + ref}
	return out, nil
}

func memFile(name, content string) UploadFile {
	return UploadFile{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}}
}

type harness struct {
	orch  *Orchestrator
	repo  repository.BatchRepository
	store *Store
}

func newHarness(t *testing.T, proc FileProcessor, db *repository.DB) *harness {
	t.Helper()
	if db == nil {
		db = openDB(t)
	}
	store := NewStore(t.TempDir(), quietLogger())
	repo := repository.NewBatchRepository(db, quietLogger())
	orch := NewOrchestrator(store, repo, proc, Config{MaxFiles: 5, DefaultWindow: 2, LeaseTTL: time.Minute}, quietLogger())
	return &harness{orch: orch, repo: repo, store: store}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a.pdf", "a.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\arrêt 12.pdf`, "arrêt_12.pdf"},
		{"..hidden.pdf", "hidden.pdf"},
		{"a$b?.pdf", "ab.pdf"},
		{"///", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUploadRejectsPerFileAndWholeBatch(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	ctx := context.Background()

	res, err := h.orch.Upload(ctx, []UploadFile{
		memFile("b.pdf", "2"),
		memFile("notes.txt", "x"),
		memFile("a.PDF", "1"),
		memFile("b.pdf", "3"),
	}, 1)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.UploadedCount != 2 || len(res.Errors) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Errors[0] != "notes.txt: Format non valide" {
		t.Errorf("error[0] = %q", res.Errors[0])
	}
	if !strings.HasPrefix(res.BatchID, "batch_") {
		t.Errorf("batch id = %q", res.BatchID)
	}
	names, _ := h.store.List(res.BatchID)
	if !reflect.DeepEqual(names, []string{"a.PDF", "b.pdf"}) {
		t.Errorf("stored = %v", names)
	}

	tooMany := make([]UploadFile, 6)
	for i := range tooMany {
		tooMany[i] = memFile("f.pdf", "1")
	}
	if _, err := h.orch.Upload(ctx, tooMany, 1); !errors.Is(err, common.ErrBatchTooLarge) {
		t.Errorf("oversized err = %v", err)
	} else if common.HTTPStatus(err) != 400 {
		t.Errorf("oversized status = %d", common.HTTPStatus(err))
	}

	if _, err := h.orch.Upload(ctx, nil, 1); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("empty err = %v", err)
	}
	if _, err := h.orch.Upload(ctx, []UploadFile{memFile("x.doc", "")}, 1); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("no pdf err = %v", err)
	}
}

func TestBatchIDCollisionMovesOn(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	fixed := time.Unix(0, 42)
	h.orch.now = func() time.Time { return fixed }
	if err := h.store.Create("batch_42"); err != nil {
		t.Fatal(err)
	}
	res, err := h.orch.Upload(context.Background(), []UploadFile{memFile("a.pdf", "1")}, 1)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.BatchID != "batch_43" {
		t.Errorf("batch id = %q, want batch_43", res.BatchID)
	}
}

func TestProcessVisitsEveryFileOnceInOrder(t *testing.T) {
	proc := &refProc{}
	h := newHarness(t, proc, nil)
	ctx := context.Background()
	res, err := h.orch.Upload(ctx, []UploadFile{
		memFile("e.pdf", "5"), memFile("c.pdf", "3"), memFile("a.pdf", "1"),
		memFile("d.pdf", "4"), memFile("b.pdf", "2"),
	}, 1)
	if err != nil {
		t.Fatal(err)
	}

	next := 0
	calls := 0
	for {
		start := next
		out, err := h.orch.Process(ctx, ProcessRequest{BatchID: res.BatchID, StartIndex: &start, BatchSize: 2}, 1)
		if err != nil {
			t.Fatalf("Process(%d): %v", start, err)
		}
		calls++
		if out.StartIndex != start {
			t.Errorf("start = %d, want %d", out.StartIndex, start)
		}
		if out.NextIndex == nil {
			if out.HasMore {
				t.Error("has_more without next_index")
			}
			break
		}
		next = *out.NextIndex
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}
	if !reflect.DeepEqual(proc.seen, want) {
		t.Errorf("order = %v, want %v", proc.seen, want)
	}

	st, err := h.orch.Status(ctx, res.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != constants.BatchStatusComplete || st.Remaining != 0 || st.Cursor != 5 {
		t.Errorf("status = %+v", st)
	}

	again, err := h.orch.Process(ctx, ProcessRequest{BatchID: res.BatchID}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if again.Processed != 0 || again.NextIndex != nil || len(proc.seen) != 5 {
		t.Errorf("completed batch reprocessed: %+v", again)
	}
}

func TestProcessRecordsFailuresAndContinues(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	ctx := context.Background()
	res, err := h.orch.Upload(ctx, []UploadFile{
		memFile("1.pdf", "101"), memFile("2.pdf", "101"), memFile("3.pdf", ""),
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	out, err := h.orch.Process(ctx, ProcessRequest{BatchID: res.BatchID, BatchSize: 10}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.Processed != 3 || out.Success != 1 || out.ErrorsCount != 2 {
		t.Fatalf("result = %+v", out)
	}
	if out.Errors[0].Error != "Cas avec ref 101 déjà existant" {
		t.Errorf("duplicate message = %q", out.Errors[0].Error)
	}
	if out.Errors[1].Error != "Impossible d'extraire la référence (ref)" {
		t.Errorf("missing ref message = %q", out.Errors[1].Error)
	}

	results, err := h.orch.Results(ctx, res.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || !results[0].OK || results[1].OK || results[1].Ref != "" {
		t.Errorf("results = %+v", results)
	}
}

func TestProcessErrors(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	ctx := context.Background()

	if _, err := h.orch.Process(ctx, ProcessRequest{}, 1); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("missing id err = %v", err)
	}
	if _, err := h.orch.Process(ctx, ProcessRequest{BatchID: "batch_nope"}, 1); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("unknown err = %v", err)
	}

	res, err := h.orch.Upload(ctx, []UploadFile{memFile("a.pdf", "1"), memFile("b.pdf", "2"), memFile("c.pdf", "3")}, 1)
	if err != nil {
		t.Fatal(err)
	}

	stale := 2
	if _, err := h.orch.Process(ctx, ProcessRequest{BatchID: res.BatchID, StartIndex: &stale}, 1); !errors.Is(err, common.ErrConflict) {
		t.Errorf("stale start err = %v", err)
	}
	// the rejected call must not keep the lease
	if _, err := h.orch.Process(ctx, ProcessRequest{BatchID: res.BatchID, BatchSize: 1}, 1); err != nil {
		t.Errorf("after stale start: %v", err)
	}

	if _, err := h.repo.AcquireLease(ctx, res.BatchID, "other", time.Now(), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := h.orch.Process(ctx, ProcessRequest{BatchID: res.BatchID}, 1); !errors.Is(err, common.ErrConflict) {
		t.Errorf("concurrent err = %v", err)
	}
	if err := h.orch.Cleanup(ctx, res.BatchID); !errors.Is(err, common.ErrConflict) {
		t.Errorf("cleanup during processing err = %v", err)
	}
}

// slowProc takes delay per file and counts how often each path is visited.
type slowProc struct {
	delay time.Duration
	mu    sync.Mutex
	calls map[string]int
}

func (p *slowProc) ProcessFile(ctx context.Context, path string, _ int64) (*pipeline.Outcome, error) {
	p.mu.Lock()
	p.calls[filepath.Base(path)]++
	n := int64(len(p.calls))
	p.mu.Unlock()
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &pipeline.Outcome{Case: &entity.Case{ID: n, Ref: "1", Titre: "t"}}, nil
}

func TestLeaseOutlivesTTLDuringLongWindow(t *testing.T) {
	proc := &slowProc{delay: 300 * time.Millisecond, calls: map[string]int{}}
	store := NewStore(t.TempDir(), quietLogger())
	repo := repository.NewBatchRepository(openDB(t), quietLogger())
	orch := NewOrchestrator(store, repo, proc, Config{MaxFiles: 5, DefaultWindow: 2, LeaseTTL: 100 * time.Millisecond}, quietLogger())
	ctx := context.Background()

	up, err := orch.Upload(ctx, []UploadFile{memFile("a.pdf", "1"), memFile("b.pdf", "2")}, 1)
	if err != nil {
		t.Fatal(err)
	}

	var (
		first *ProcessResult
		errA  error
		wg    sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, errA = orch.Process(ctx, ProcessRequest{BatchID: up.BatchID}, 1)
	}()

	time.Sleep(200 * time.Millisecond)
	if _, err := orch.Process(ctx, ProcessRequest{BatchID: up.BatchID}, 1); !errors.Is(err, common.ErrConflict) {
		t.Errorf("second Process during window: err = %v, want conflict", err)
	}
	if err := orch.Cleanup(ctx, up.BatchID); !errors.Is(err, common.ErrConflict) {
		t.Errorf("Cleanup during window: err = %v, want conflict", err)
	}
	wg.Wait()

	if errA != nil {
		t.Fatalf("first Process: %v", errA)
	}
	if first.Success != 2 || first.HasMore {
		t.Errorf("first result = %+v", first)
	}
	want := map[string]int{"a.pdf": 1, "b.pdf": 1}
	if !reflect.DeepEqual(proc.calls, want) {
		t.Errorf("calls = %v, want %v", proc.calls, want)
	}
	if !store.Exists(up.BatchID) {
		t.Error("batch files removed while the window was running")
	}
}

func TestUploadFailedSaveStillCountsName(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	broken := UploadFile{Name: "a.pdf", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("read failed")
	}}
	res, err := h.orch.Upload(context.Background(), []UploadFile{
		broken, memFile("a.pdf", "1"), memFile("b.pdf", "2"),
	}, 1)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.UploadedCount != 1 || res.UploadedFiles[0].Filename != "b.pdf" {
		t.Errorf("uploaded = %+v", res.UploadedFiles)
	}
	if len(res.Errors) != 2 || res.Errors[1] != "a.pdf: fichier en double dans le lot" {
		t.Errorf("errors = %q", res.Errors)
	}
}

func TestCleanup(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	ctx := context.Background()
	res, err := h.orch.Upload(ctx, []UploadFile{memFile("a.pdf", "1")}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.orch.Cleanup(ctx, res.BatchID); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if h.store.Exists(res.BatchID) {
		t.Error("batch directory still present")
	}
	if _, err := h.orch.Status(ctx, res.BatchID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("status after cleanup err = %v", err)
	}
	if err := h.orch.Cleanup(ctx, res.BatchID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second cleanup err = %v", err)
	}
}

func TestImportSingle(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	ctx := context.Background()

	out, err := h.orch.ImportSingle(ctx, memFile("arrêt.pdf", "77"), 1)
	if err != nil {
		t.Fatalf("ImportSingle: %v", err)
	}
	if out.Case.Ref != "77" {
		t.Errorf("ref = %q", out.Case.Ref)
	}

	if _, err := h.orch.ImportSingle(ctx, memFile("x.txt", "1"), 1); !errors.Is(err, common.ErrUnsupportedFile) {
		t.Errorf("non pdf err = %v", err)
	}
	if _, err := h.orch.ImportSingle(ctx, memFile("dup.pdf", "77"), 1); !errors.Is(err, common.ErrDuplicate) {
		t.Errorf("duplicate err = %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(h.store.Root(), singleDir))
	if len(entries) != 1 {
		t.Errorf("single dir holds %d files, want 1", len(entries))
	}
}

func TestImportPathKeepsSource(t *testing.T) {
	h := newHarness(t, &refProc{}, nil)
	src := filepath.Join(t.TempDir(), "dropped.pdf")
	if err := os.WriteFile(src, []byte("88"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.ImportPath(context.Background(), src); err != nil {
		t.Fatalf("ImportPath: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source removed: %v", err)
	}
	if err := h.orch.ImportPath(context.Background(), src); !errors.Is(err, common.ErrDuplicate) {
		t.Errorf("second import err = %v", err)
	}
}

// fileText serves the stored file's bytes as its PDF text.
type fileText struct{}

func (fileText) Extract(_ context.Context, path string) (extract.TextResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return extract.TextResult{}, err
	}
	return extract.TextResult{Text: string(b), Pages: 1, Method: "test"}, nil
}

func TestThreeFileScenario(t *testing.T) {
	db := openDB(t)
	logger := quietLogger()
	key, _ := encryption.GenerateKey()
	cipher, err := encryption.NewService(key)
	if err != nil {
		t.Fatal(err)
	}
	builder := cases.NewBuilder(repository.NewCaseRepository(db, logger), cipher, logger)
	proc := pipeline.NewProcessor(logger,
		pipeline.NewTextStage(fileText{}, logger),
		pipeline.NewFieldStage(extract.NewExtractor(extract.DefaultRules(), logger), nil, logger),
		builder, 0)
	h := newHarness(t, proc, db)
	ctx := context.Background()

	res, err := h.orch.Upload(ctx, []UploadFile{
		memFile("a.pdf", "Ref : 101\nJuridiction : Cour de cassation"),
		memFile("b.pdf", "Ref : 102\nThème : Bail"),
		memFile("c.pdf", "Juridiction : Tribunal de commerce"),
	}, 3)
	if err != nil {
		t.Fatal(err)
	}
	start := 0
	out, err := h.orch.Process(ctx, ProcessRequest{BatchID: res.BatchID, StartIndex: &start, BatchSize: 10}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if out.Processed != 3 || out.Success != 2 || out.ErrorsCount != 1 || out.HasMore || out.NextIndex != nil {
		t.Errorf("result = %+v", out)
	}
	if out.Errors[0].Filename != "c.pdf" {
		t.Errorf("failed file = %q", out.Errors[0].Filename)
	}
	if out.Details[1].Titre != "Bail" || out.Details[0].Titre != "Document 101" {
		t.Errorf("details = %+v", out.Details)
	}
}
