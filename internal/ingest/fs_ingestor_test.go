package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type mapLookup map[string]uuid.UUID

func (m mapLookup) FindBySHA256(_ context.Context, sum string) (uuid.UUID, bool, error) {
	id, ok := m[sum]
	return id, ok, nil
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sem1.pdf"), "%PDF-1 one")
	writeFile(t, filepath.Join(root, "nested", "SEM2.PDF"), "%PDF-1 two")
	writeFile(t, filepath.Join(root, "nested", "copy.pdf"), "%PDF-1 one")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a ledger")
	writeFile(t, filepath.Join(root, ".cache", "hidden.pdf"), "%PDF-1 hidden")

	ing := NewFSIngestor(nil, quietLogger())
	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}

	if stats.Matched != 3 || stats.Succeeded != 3 || stats.Deduplicated != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	pending := Pending(results)
	for i, p := range pending {
		pending[i] = filepath.Base(p)
	}
	sort.Strings(pending)
	// WalkDir visits nested/ before sem1.pdf, so copy.pdf claims the hash first.
	want := []string{"SEM2.PDF", "copy.pdf"}
	if diff := cmp.Diff(want, pending); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestDirectory_IncludesHiddenWhenAsked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "hidden.pdf"), "%PDF-1 hidden")

	_, stats, err := NewFSIngestor(nil, quietLogger()).IngestDirectory(context.Background(), root, false)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if stats.Matched != 1 {
		t.Fatalf("matched = %d, want 1", stats.Matched)
	}
}

func TestIngestPath_ArchivedLookup(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ledger.pdf")
	writeFile(t, path, "%PDF-1 archived")

	first, err := NewFSIngestor(nil, quietLogger()).IngestPath(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestPath: %v", err)
	}
	if first.Deduplicated || first.Size != int64(len("%PDF-1 archived")) || len(first.HashHex) != 64 {
		t.Fatalf("unexpected result: %+v", first)
	}

	id := uuid.New()
	ing := NewFSIngestor(mapLookup{first.HashHex: id}, quietLogger())
	got, err := ing.IngestPath(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestPath: %v", err)
	}
	if !got.Deduplicated || got.DocumentID != id.String() {
		t.Fatalf("expected archived dedup to %s, got %+v", id, got)
	}
}

func TestIngestPath_Errors(t *testing.T) {
	root := t.TempDir()
	txt := filepath.Join(root, "notes.txt")
	writeFile(t, txt, "x")

	ing := NewFSIngestor(nil, quietLogger())
	if _, err := ing.IngestPath(context.Background(), txt); err == nil {
		t.Fatalf("expected extension error")
	}
	if _, err := ing.IngestPath(context.Background(), filepath.Join(root, "missing.pdf")); err == nil {
		t.Fatalf("expected open error")
	}
	if _, _, err := ing.IngestDirectory(context.Background(), "  ", true); err == nil {
		t.Fatalf("expected root error")
	}
}

func TestIsHidden(t *testing.T) {
	cases := map[string]bool{
		"/tmp/.cache":     true,
		"/tmp/ledger.pdf": false,
		".env":            true,
	}
	for in, want := range cases {
		if got := IsHidden(in); got != want {
			t.Errorf("IsHidden(%q) = %v, want %v", in, got, want)
		}
	}
}
