package descriptor

import (
	"math/rand"
	"testing"
)

type fakeHeap struct {
	count         uint32
	shaderVisible bool
}

func (h *fakeHeap) Count() uint32          { return h.count }
func (h *fakeHeap) ShaderVisible() bool    { return h.shaderVisible }
func (h *fakeHeap) CPUHandle(i uint32) uintptr { return uintptr(i) * 8 }
func (h *fakeHeap) GPUHandle(i uint32) uint64  { return uint64(i) * 8 }

func TestAllocator_FreeListCoalescing(t *testing.T) {
	heap := &fakeHeap{count: 10}
	a := NewAllocator(heap)

	allocA := a.Allocate(3)
	allocB := a.Allocate(3)
	allocC := a.Allocate(4)
	if !allocA.IsValid() || !allocB.IsValid() || !allocC.IsValid() {
		t.Fatal("expected all three allocations to succeed")
	}
	if a.GetAvailableCount() != 0 {
		t.Fatalf("expected heap fully allocated, got %d free", a.GetAvailableCount())
	}

	a.Free(allocB)
	if got := a.free; len(got) != 1 || got[0] != (freeRange{start: 3, count: 3}) {
		t.Fatalf("expected single free range {3,3}, got %v", got)
	}

	a.Free(allocA)
	if got := a.free; len(got) != 1 || got[0] != (freeRange{start: 0, count: 6}) {
		t.Fatalf("expected single free range {0,6}, got %v", got)
	}

	a.Free(allocC)
	if got := a.free; len(got) != 1 || got[0] != (freeRange{start: 0, count: 10}) {
		t.Fatalf("expected single free range {0,10}, got %v", got)
	}
}

func TestAllocator_AllocateOnExhaustionIsInvalid(t *testing.T) {
	heap := &fakeHeap{count: 4}
	a := NewAllocator(heap)
	if !a.Allocate(4).IsValid() {
		t.Fatal("expected full allocation to succeed")
	}
	if a.Allocate(1).IsValid() {
		t.Fatal("expected allocation past capacity to be invalid")
	}
}

func TestAllocator_FreeForeignOrInvalidIsNoop(t *testing.T) {
	heap := &fakeHeap{count: 4}
	a := NewAllocator(heap)
	before := a.GetAvailableCount()

	a.Free(Allocation{}) // invalid
	a.Free(Allocation{heap: &fakeHeap{count: 4}, first: 0, count: 1}) // foreign heap

	if a.GetAvailableCount() != before {
		t.Fatalf("expected no-op free to leave available count unchanged, got %d want %d", a.GetAvailableCount(), before)
	}
}

func TestAllocator_Reset(t *testing.T) {
	heap := &fakeHeap{count: 16}
	a := NewAllocator(heap)
	a.Allocate(5)
	a.Allocate(3)
	a.Reset()
	if a.GetAvailableCount() != 16 {
		t.Fatalf("expected full availability after reset, got %d", a.GetAvailableCount())
	}
	if len(a.free) != 1 {
		t.Fatalf("expected a single free range after reset, got %d", len(a.free))
	}
}

// TestAllocator_PropertyCoalescingAndCompleteness runs a randomized sequence
// of allocate/free operations and checks, after every free, that no two
// free ranges are adjacent (coalescing invariant) and that the union of
// live allocations and free ranges exactly equals the whole heap.
func TestAllocator_PropertyCoalescingAndCompleteness(t *testing.T) {
	const heapSize = 128
	rng := rand.New(rand.NewSource(1))
	heap := &fakeHeap{count: heapSize}
	a := NewAllocator(heap)

	var live []Allocation
	for iter := 0; iter < 2000; iter++ {
		if len(live) > 0 && rng.Intn(2) == 0 {
			i := rng.Intn(len(live))
			a.Free(live[i])
			live = append(live[:i], live[i+1:]...)
			assertCoalesced(t, a)
			assertComplete(t, a, heapSize, live)
			continue
		}
		n := uint32(rng.Intn(16) + 1)
		alloc := a.Allocate(n)
		if alloc.IsValid() {
			live = append(live, alloc)
		}
	}
}

func assertCoalesced(t *testing.T, a *Allocator) {
	t.Helper()
	for i := range a.free {
		for j := range a.free {
			if i == j {
				continue
			}
			if a.free[i].start+a.free[i].count == a.free[j].start {
				t.Fatalf("adjacent free ranges not coalesced: %v touches %v", a.free[i], a.free[j])
			}
		}
	}
}

func assertComplete(t *testing.T, a *Allocator, heapSize uint32, live []Allocation) {
	t.Helper()
	covered := make([]bool, heapSize)
	mark := func(start, count uint32, what string) {
		for i := start; i < start+count; i++ {
			if covered[i] {
				t.Fatalf("slot %d double-covered by %s", i, what)
			}
			covered[i] = true
		}
	}
	for _, r := range a.free {
		mark(r.start, r.count, "free range")
	}
	for _, l := range live {
		mark(l.first, l.count, "live allocation")
	}
	for i, c := range covered {
		if !c {
			t.Fatalf("slot %d not covered by free ranges or live allocations", i)
		}
	}
}
