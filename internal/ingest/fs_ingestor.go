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
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/constants"
)

// HashLookup reports whether a document with the given SHA-256 is already archived.
type HashLookup interface {
	FindBySHA256(ctx context.Context, sum string) (uuid.UUID, bool, error)
}

// FSIngestor discovers ledger PDFs on the local filesystem.
type FSIngestor struct {
	lookup HashLookup
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // hash -> first path in this run
}

// NewFSIngestor builds an ingestor. lookup may be nil, in which case
// only duplicates within the same run are detected.
func NewFSIngestor(lookup HashLookup, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		lookup: lookup,
		logger: logger,
		seen:   make(map[string]string),
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("ingest.skip", "path", abs, "ext", ext)
		return out, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close.failed", "path", abs, "err", err)
		}
	}(f)

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return out, fmt.Errorf("hash %s: %w", abs, err)
	}
	sum := hex.EncodeToString(h.Sum(nil))

	out = IngestionResult{
		SourcePath:   abs,
		HashHex:      sum,
		Size:         n,
		DiscoveredAt: time.Now().UTC(),
	}

	i.mu.Lock()
	first, dup := i.seen[sum]
	if !dup {
		i.seen[sum] = abs
	}
	i.mu.Unlock()
	if dup {
		i.logger.Info("ingest.dedup", "path", abs, "same_as", first)
		out.Deduplicated = true
		return out, nil
	}

	if i.lookup != nil {
		id, ok, err := i.lookup.FindBySHA256(ctx, sum)
		if err != nil {
			return out, err
		}
		if ok {
			i.logger.Info("ingest.dedup", "path", abs, "document_id", id)
			out.DocumentID = id.String()
			out.Deduplicated = true
		}
	}
	return out, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	i.logger.Info("ingest.dir.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Pending returns the paths that still need processing.
func Pending(results []IngestionResult) []string {
	var out []string
	for _, r := range results {
		if r.Err == "" && !r.Deduplicated {
			out = append(out, r.SourcePath)
		}
	}
	return out
}
