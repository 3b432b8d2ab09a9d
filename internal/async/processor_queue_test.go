package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/results-ledger/internal/entity"
	"github.com/joseph-ayodele/results-ledger/internal/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]bool
	block chan struct{}
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path string) (*pipeline.Outcome, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.seen = append(f.seen, path)
	f.mu.Unlock()
	if f.fail[path] {
		return nil, errors.New("broken ledger")
	}
	return &pipeline.Outcome{Result: entity.ExtractionResult{Students: []entity.Student{{RegNo: path}}}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessorQueue_DrainsOnShutdown(t *testing.T) {
	proc := &fakeProcessor{fail: map[string]bool{"b.pdf": true}}

	var mu sync.Mutex
	failed := map[string]bool{}
	q := NewProcessorQueue(proc, quietLogger(),
		WithWorkers(2),
		WithQueueSize(1),
		WithOnResult(func(job Job, out *pipeline.Outcome, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed[job.Path] = err != nil
			if err == nil && out.Result.Students[0].RegNo != job.Path {
				t.Errorf("outcome for %s carries %s", job.Path, out.Result.Students[0].RegNo)
			}
		}),
	)

	paths := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p}); err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
	}
	q.Shutdown(context.Background())

	proc.mu.Lock()
	seen := append([]string(nil), proc.seen...)
	proc.mu.Unlock()
	sort.Strings(seen)
	if diff := cmp.Diff(paths, seen); diff != "" {
		t.Fatalf("processed paths mismatch (-want +got):\n%s", diff)
	}
	want := map[string]bool{"a.pdf": false, "b.pdf": true, "c.pdf": false, "d.pdf": false}
	if diff := cmp.Diff(want, failed); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, quietLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after shutdown = %v, want ErrQueueClosed", err)
	}
}

func TestProcessorQueue_EnqueueHonoursContext(t *testing.T) {
	proc := &fakeProcessor{block: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))

	// One job occupies the worker, one fills the buffer.
	if err := q.Enqueue(context.Background(), Job{Path: "1.pdf"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(context.Background(), Job{Path: "2.pdf"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Path: "3.pdf"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Enqueue on full queue = %v, want deadline exceeded", err)
	}

	close(proc.block)
	q.Shutdown(context.Background())
}
