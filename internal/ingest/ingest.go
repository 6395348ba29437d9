package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate is one PDF found under a root, ready to be uploaded.
type Candidate struct {
	Path    string
	Size    int64
	HashHex string
	// DuplicateOf is the earlier candidate with identical content, if any.
	DuplicateOf string
	Err         string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Unique     uint32
	Duplicates uint32
	Failed     uint32
}

// Collector walks directories for importable files.
type Collector struct {
	SkipHidden bool
	Logger     *slog.Logger
}

func NewCollector(skipHidden bool, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{SkipHidden: skipHidden, Logger: logger}
}

// Collect walks root and hashes every PDF so byte-identical copies are
// flagged before they reach the importer. Candidates come back sorted by
// path. Unreadable entries are reported in place; only a bad root fails.
func (c *Collector) Collect(ctx context.Context, root string) ([]Candidate, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}
	if fi, err := os.Stat(root); err != nil {
		return nil, stats, err
	} else if !fi.IsDir() {
		return nil, stats, fmt.Errorf("%s is not a directory", root)
	}

	var out []Candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			out = append(out, Candidate{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if c.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		size, sum, err := hashFile(path)
		if err != nil {
			out = append(out, Candidate{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		out = append(out, Candidate{Path: path, Size: size, HashHex: sum})
		return nil
	})
	if err != nil {
		return out, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	first := make(map[string]string, len(out))
	for i := range out {
		cand := &out[i]
		if cand.Err != "" {
			continue
		}
		if prev, ok := first[cand.HashHex]; ok {
			cand.DuplicateOf = prev
			stats.Duplicates++
			continue
		}
		first[cand.HashHex] = cand.Path
		stats.Unique++
	}
	c.Logger.Info("ingest.collect.ok",
		"root", root,
		"matched", stats.Matched,
		"unique", stats.Unique,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
	)
	return out, stats, nil
}

func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
