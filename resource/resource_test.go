package resource

import "testing"

func TestBase_AddRefRelease(t *testing.T) {
	res := &fakeResource{}
	var b Base
	q := NewDeferredDeleteQueue(DefaultDeferredDeleteQueueConfig(), nil, nil)
	b.Init("test", q, res)

	if got := b.RefCount(); got != 1 {
		t.Fatalf("expected initial refcount 1, got %d", got)
	}

	b.AddRef()
	if got := b.RefCount(); got != 2 {
		t.Fatalf("expected refcount 2 after AddRef, got %d", got)
	}

	b.Release()
	if got := b.RefCount(); got != 1 {
		t.Fatalf("expected refcount 1 after one release, got %d", got)
	}
	if res.released {
		t.Fatal("resource released while still referenced")
	}

	b.Release()
	if got := b.RefCount(); got != 0 {
		t.Fatalf("expected refcount 0, got %d", got)
	}
	if q.Depth() != 1 {
		t.Fatalf("expected resource enqueued for deferred delete, depth=%d", q.Depth())
	}
}

func TestBase_OverReleasePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on over-release")
		}
	}()
	var b Base
	b.Init("test", nil, &fakeResource{})
	b.Release()
	b.Release()
}
