package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/events"
	"github.com/joseph-ayodele/results-ledger/internal/ledger"
	"github.com/joseph-ayodele/results-ledger/internal/pdftext"
	"github.com/joseph-ayodele/results-ledger/internal/repository"
)

const ledgerText = `Institute : 101 - [ GOVT POLYTECHNIC ]
Programme : CE - CIVIL ENGINEERING
Result Date : 12/01/2024
1 20CE53I STUDENT NAME [ S(D)/o : FATHER NAME ]
20CE53I : TRANSPORTATION ENGINEERING 172 / 04 / 50 F 0 F
Results : FAIL
`

type stubConverter struct {
	text string
	err  error
}

func (s stubConverter) Convert(_ context.Context, content []byte) (pdftext.Result, error) {
	if s.err != nil {
		return pdftext.Result{}, s.err
	}
	return pdftext.Result{Text: s.text, Pages: 1, Method: pdftext.MethodNative}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ResultEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.ResultEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(t *testing.T) (*repository.DB, repository.Store) {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, quiet())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store := repository.NewResultStore(db, quiet())
	t.Cleanup(store.Close)
	return db, store
}

func TestProcess_NoArchive(t *testing.T) {
	p := NewProcessor(quiet(), stubConverter{text: ledgerText}, ledger.NewExtractor(quiet()))
	out, err := p.Process(context.Background(), Input{Name: "a.pdf", Content: []byte("%PDF-1.4"), Archive: true})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.DocumentID != uuid.Nil || p.CanArchive() {
		t.Fatalf("nothing should be archived without a store")
	}
	if len(out.Result.Students) != 1 || out.Result.Institute != "GOVT POLYTECHNIC" {
		t.Fatalf("unexpected result: %+v", out.Result)
	}
	if len(out.SHA256) != 64 {
		t.Fatalf("sha256 = %q", out.SHA256)
	}
}

func TestProcess_ArchivePublishesOnce(t *testing.T) {
	_, store := newStore(t)
	pub := &recordingPublisher{}
	p := NewProcessor(quiet(), stubConverter{text: ledgerText}, nil, WithStore(store), WithPublisher(pub))

	in := Input{Name: "a.pdf", Content: []byte("%PDF-1.4 same"), Archive: true}
	first, err := p.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	second, err := p.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("process again: %v", err)
	}
	if first.DocumentID == uuid.Nil || second.DocumentID != first.DocumentID || !second.Deduplicated {
		t.Fatalf("first=%v second=%v dedup=%v", first.DocumentID, second.DocumentID, second.Deduplicated)
	}
	if len(pub.events) != 1 || pub.events[0].Failed != 1 {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestProcess_Errors(t *testing.T) {
	ctx := context.Background()

	p := NewProcessor(quiet(), stubConverter{err: pdftext.ErrNotPDF}, nil)
	if _, err := p.Process(ctx, Input{Content: []byte("x")}); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	p = NewProcessor(quiet(), stubConverter{err: errors.New("bad xref")}, nil)
	_, err := p.Process(ctx, Input{Content: []byte("%PDF")})
	if !errors.Is(err, common.ErrConversion) {
		t.Fatalf("err = %v, want ErrConversion", err)
	}
	if got := common.UserMessage(err); got != "Failed to parse PDF: bad xref" {
		t.Fatalf("message = %q", got)
	}
}

func TestProcessFile_TracksJobs(t *testing.T) {
	db, store := newStore(t)
	jobs := repository.NewExtractJobRepository(db, quiet())
	p := NewProcessor(quiet(), stubConverter{text: ledgerText}, nil, WithStore(store), WithJobs(jobs))

	path := filepath.Join(t.TempDir(), "ledger.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 file"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := p.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("process file: %v", err)
	}
	docs, err := store.ListDocuments(context.Background())
	if err != nil || len(docs) != 1 || docs[0].ID != out.DocumentID || docs[0].SourceName != "ledger.pdf" {
		t.Fatalf("docs=%+v err=%v", docs, err)
	}

	if _, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}
