package descriptor

// slotSource is the minimal view of a descriptor heap the allocator needs:
// its slot count and the ability to resolve a slot index to a handle. Heap
// satisfies it; tests use a lightweight fake instead of standing up a
// gpu.Device.
type slotSource interface {
	Count() uint32
	ShaderVisible() bool
	CPUHandle(index uint32) uintptr
	GPUHandle(index uint32) uint64
}

// freeRange is one entry of the allocator's free list: a half-open run of
// [start, start+count) slots that is not currently handed out.
type freeRange struct {
	start uint32
	count uint32
}

// Allocation is a half-open slot range carved out of a heap. A zero-value
// Allocation (heap == nil) is invalid, matching "allocate failed".
type Allocation struct {
	heap  slotSource
	first uint32
	count uint32
}

// IsValid reports whether this allocation refers to live heap slots.
func (a Allocation) IsValid() bool { return a.heap != nil }

// Count returns the number of slots in the allocation.
func (a Allocation) Count() uint32 { return a.count }

// FirstIndex returns the allocation's first slot index within its heap.
func (a Allocation) FirstIndex() uint32 { return a.first }

// Handle resolves slot i (0-based within the allocation) to its CPU/GPU
// descriptor handle pair.
func (a Allocation) Handle(i uint32) Handle {
	idx := a.first + i
	h := Handle{CPU: a.heap.CPUHandle(idx)}
	if a.heap.ShaderVisible() {
		h.GPU = a.heap.GPUHandle(idx)
	}
	return h
}

// Allocator is a single-threaded, first-fit, always-coalesced free-list
// allocator over one Heap. Callers must serialize access themselves; see
// the package-level concurrency notes.
//
// Free is the routine that matters: on every Free it scans the free list
// once, finds the neighbour (if any) touching the freed range on the left
// and on the right, and merges in O(F) where F is the number of free
// ranges. The free list is therefore always fully coalesced — no two
// entries are ever adjacent.
type Allocator struct {
	heap slotSource
	free []freeRange
}

// NewAllocator creates an allocator over heap, initially free end-to-end.
func NewAllocator(heap slotSource) *Allocator {
	a := &Allocator{heap: heap}
	a.Reset()
	return a
}

// Reset discards all outstanding allocations and restores a single free
// range spanning the entire heap. Callers must ensure nothing still
// references a previously-handed-out Allocation.
func (a *Allocator) Reset() {
	a.free = a.free[:0]
	if a.heap.Count() > 0 {
		a.free = append(a.free, freeRange{start: 0, count: a.heap.Count()})
	}
}

// GetAvailableCount returns the total number of free slots across every
// free range (not necessarily contiguous).
func (a *Allocator) GetAvailableCount() uint32 {
	var total uint32
	for _, r := range a.free {
		total += r.count
	}
	return total
}

// Allocate carves out a contiguous run of count slots using first-fit.
// Returns an invalid Allocation (IsValid() == false) if no free range is
// large enough.
func (a *Allocator) Allocate(count uint32) Allocation {
	if count == 0 {
		return Allocation{}
	}
	for i := range a.free {
		r := &a.free[i]
		if r.count < count {
			continue
		}
		first := r.start
		r.start += count
		r.count -= count
		if r.count == 0 {
			a.free = append(a.free[:i], a.free[i+1:]...)
		}
		return Allocation{heap: a.heap, first: first, count: count}
	}
	return Allocation{}
}

// Free returns alloc's slots to the free list, coalescing with whichever
// neighbouring free ranges (left, right, both, or neither) are adjacent.
// Freeing an invalid or foreign allocation is a silent no-op.
func (a *Allocator) Free(alloc Allocation) {
	if !alloc.IsValid() || alloc.heap != a.heap {
		return
	}

	leftIdx, rightIdx := -1, -1
	for i, r := range a.free {
		if r.start+r.count == alloc.first {
			leftIdx = i
		}
		if alloc.first+alloc.count == r.start {
			rightIdx = i
		}
	}

	switch {
	case leftIdx >= 0 && rightIdx >= 0:
		a.free[leftIdx].count += alloc.count + a.free[rightIdx].count
		a.removeAt(rightIdx)
	case leftIdx >= 0:
		a.free[leftIdx].count += alloc.count
	case rightIdx >= 0:
		a.free[rightIdx].start = alloc.first
		a.free[rightIdx].count += alloc.count
	default:
		a.free = append(a.free, freeRange{start: alloc.first, count: alloc.count})
	}
}

// removeAt swap-removes index i from the free list. Order among free
// ranges is never meaningful, so swap-remove keeps Free O(F) without a
// shift.
func (a *Allocator) removeAt(i int) {
	last := len(a.free) - 1
	a.free[i] = a.free[last]
	a.free = a.free[:last]
}
