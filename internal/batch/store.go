package batch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/jurisprudence/constants"
)

// singleDir holds files imported one at a time, outside any batch.
const singleDir = "single"

// Store keeps uploaded files on disk, one directory per batch under root.
type Store struct {
	root   string
	logger *slog.Logger
}

func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger}
}

// Root returns the upload directory.
func (s *Store) Root() string { return s.root }

// Dir returns the directory of a batch.
func (s *Store) Dir(batchID string) string {
	return filepath.Join(s.root, filepath.Base(batchID))
}

// Path returns where name is stored within a batch.
func (s *Store) Path(batchID, name string) string {
	return filepath.Join(s.Dir(batchID), name)
}

// Create makes the batch directory. It fails with os.ErrExist when the
// directory is already there, which callers use to detect id collisions.
func (s *Store) Create(batchID string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	return os.Mkdir(s.Dir(batchID), 0o755)
}

// Exists reports whether the batch directory is present.
func (s *Store) Exists(batchID string) bool {
	fi, err := os.Stat(s.Dir(batchID))
	return err == nil && fi.IsDir()
}

// Save writes r as name into the batch directory and returns the full path.
func (s *Store) Save(batchID, name string, r io.Reader) (string, error) {
	return s.write(s.Dir(batchID), name, r)
}

// SaveSingle stores a one-off import as <root>/single/<prefix>_<name>.
// An existing file is never overwritten; a numeric suffix is added to the
// prefix instead.
func (s *Store) SaveSingle(prefix, name string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, singleDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create single dir: %w", err)
	}
	candidate := prefix + "_" + name
	for i := 1; ; i++ {
		path, err := s.create(dir, candidate, os.O_EXCL, r)
		if !errors.Is(err, os.ErrExist) || i > 100 {
			return path, err
		}
		candidate = fmt.Sprintf("%s-%d_%s", prefix, i, name)
	}
}

func (s *Store) write(dir, name string, r io.Reader) (string, error) {
	return s.create(dir, name, os.O_TRUNC, r)
}

func (s *Store) create(dir, name string, mode int, r io.Reader) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// List returns the PDF names of a batch in lexicographic order.
func (s *Store) List(batchID string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(batchID))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsPDF(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes the batch directory and everything in it. A missing
// directory is not an error.
func (s *Store) Remove(batchID string) error {
	err := os.RemoveAll(s.Dir(batchID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("batch.store.remove_failed", "batch_id", batchID, "error", err)
		return err
	}
	return nil
}

// IsPDF reports whether name carries an allowed extension.
func IsPDF(name string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(name))]
	return ok
}

// SanitizeFilename reduces an uploaded name to a safe base name: any
// directory part is dropped, whitespace becomes '_', and characters other
// than letters, digits, '.', '-' and '_' are removed. Leading dots are
// stripped so the result is never hidden. An empty result means the name
// is unusable.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "._")
}
