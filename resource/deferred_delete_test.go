package resource

import (
	"sync"
	"testing"
	"time"
)

type fakeFence struct {
	mu        sync.Mutex
	completed uint64
}

func (f *fakeFence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *fakeFence) IsCompleted(value uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed >= value
}

func (f *fakeFence) Wait(value uint64, timeout time.Duration) (bool, error) {
	return f.IsCompleted(value), nil
}

func (f *fakeFence) signal(v uint64) {
	f.mu.Lock()
	f.completed = v
	f.mu.Unlock()
}

type fakeResource struct {
	released bool
}

func (r *fakeResource) releaseNow() { r.released = true }

func TestDeferredDelete_FenceBased(t *testing.T) {
	q := NewDeferredDeleteQueue(DefaultDeferredDeleteQueueConfig(), nil, nil)
	fence := &fakeFence{}
	res := &fakeResource{}

	q.Enqueue(res, fence, 5)
	q.BeginFrame(10)

	if n := q.ProcessCompletedDeletions(); n != 0 {
		t.Fatalf("expected 0 released before fence completion, got %d", n)
	}
	if res.released {
		t.Fatal("resource released before fence completed")
	}

	fence.signal(5)
	if n := q.ProcessCompletedDeletions(); n != 1 {
		t.Fatalf("expected 1 released after fence completion, got %d", n)
	}
	if !res.released {
		t.Fatal("resource not released after fence completed")
	}
}

func TestDeferredDelete_FrameBased(t *testing.T) {
	cfg := DefaultDeferredDeleteQueueConfig()
	cfg.MaxDeferredFrames = 3
	q := NewDeferredDeleteQueue(cfg, nil, nil)
	res := &fakeResource{}

	q.BeginFrame(0)
	q.Enqueue(res, nil, 0)

	q.BeginFrame(2)
	if n := q.ProcessCompletedDeletions(); n != 0 {
		t.Fatalf("expected 0 released at frame 2, got %d", n)
	}

	q.BeginFrame(3)
	if n := q.ProcessCompletedDeletions(); n != 1 {
		t.Fatalf("expected 1 released at frame 3, got %d", n)
	}
}

type countingHandler struct {
	mu     sync.Mutex
	levels []PressureLevel
}

func (h *countingHandler) NotifyPressureChange(level PressureLevel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.levels = append(h.levels, level)
}

func TestDeferredDelete_PressureLevels(t *testing.T) {
	cfg := DeferredDeleteQueueConfig{MaxDeferredFrames: 3, PressureThreshold: 4}
	handler := &countingHandler{}
	q := NewDeferredDeleteQueue(cfg, handler, nil)

	for i := 0; i < 4; i++ {
		q.Enqueue(&fakeResource{}, nil, 0)
	}
	if got := q.PressureLevel(); got != PressureMedium {
		t.Fatalf("expected medium pressure at depth 4, got %v", got)
	}

	for i := 0; i < 4; i++ {
		q.Enqueue(&fakeResource{}, nil, 0)
	}
	if got := q.PressureLevel(); got != PressureHigh {
		t.Fatalf("expected high pressure at depth 8, got %v", got)
	}

	for i := 0; i < 8; i++ {
		q.Enqueue(&fakeResource{}, nil, 0)
	}
	if got := q.PressureLevel(); got != PressureCritical {
		t.Fatalf("expected critical pressure at depth 16, got %v", got)
	}

	handler.mu.Lock()
	levels := append([]PressureLevel(nil), handler.levels...)
	handler.mu.Unlock()
	if len(levels) != 3 {
		t.Fatalf("expected exactly 3 notifications (one per transition), got %d: %v", len(levels), levels)
	}
}

func TestDeferredDelete_FlushReleasesUnconditionally(t *testing.T) {
	q := NewDeferredDeleteQueue(DefaultDeferredDeleteQueueConfig(), nil, nil)
	res := &fakeResource{}
	q.Enqueue(res, &fakeFence{}, 1000) // never completes

	if n := q.Flush(); n != 1 {
		t.Fatalf("expected flush to release 1 entry, got %d", n)
	}
	if !res.released {
		t.Fatal("flush did not release resource")
	}
	if q.Depth() != 0 {
		t.Fatalf("expected empty queue after flush, got depth %d", q.Depth())
	}
}

func TestDeferredDelete_ConcurrentEnqueue(t *testing.T) {
	q := NewDeferredDeleteQueue(DefaultDeferredDeleteQueueConfig(), nil, nil)
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			q.Enqueue(&fakeResource{}, nil, 0)
		}()
	}
	wg.Wait()
	if q.Depth() != n {
		t.Fatalf("expected depth %d, got %d", n, q.Depth())
	}
}
