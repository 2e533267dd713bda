// Package transient implements per-frame aliased memory allocation:
// render-pass resources that are never alive at the same time can share
// the same backing memory, cutting peak GPU memory well below the sum
// of every resource's size.
package transient

import "github.com/nsrhi/rhi/gpu"

// Pipeline distinguishes the graphics and async-compute queues, which
// can run concurrently and therefore need their own aliasing barriers
// rather than sharing memory without synchronization.
type Pipeline uint8

const (
	PipelineGraphics Pipeline = iota
	PipelineAsyncCompute
)

// AsyncComputeBudget names a fraction of the transient heap for
// async-compute passes (none, a quarter, half, three quarters, all).
// Allocator stores it but does not limit placement by it.
type AsyncComputeBudget uint8

const (
	AsyncComputeBudgetNone AsyncComputeBudget = iota
	AsyncComputeBudgetQuarter
	AsyncComputeBudgetHalf
	AsyncComputeBudgetThreeQuarters
	AsyncComputeBudgetAll
)

func (b AsyncComputeBudget) fraction() float64 {
	switch b {
	case AsyncComputeBudgetNone:
		return 0
	case AsyncComputeBudgetQuarter:
		return 0.25
	case AsyncComputeBudgetHalf:
		return 0.5
	case AsyncComputeBudgetThreeQuarters:
		return 0.75
	case AsyncComputeBudgetAll:
		return 1.0
	default:
		return 0
	}
}

// Resource is one transient allocation request: a buffer or texture that
// is only needed for the span of render passes between acquire and
// release.
type Resource struct {
	Name      string
	Size      uint64
	Alignment uint64

	placed   bool
	offset   uint64
	pipeline Pipeline
}

// Placed reports whether AcquireResources successfully gave this
// resource a memory range. False after a bounded heap runs out of room.
func (r *Resource) Placed() bool { return r.placed }

// DebugName satisfies gpu.Handle, so a *Resource can be passed directly to
// CommandContext.ResourceAliasingBarrier.
func (r *Resource) DebugName() string { return r.Name }

// occupant records who last wrote a byte range, carried along with free
// ranges so a later alloc from that range knows whether it needs an
// aliasing barrier (and possibly a cross-pipeline fence wait) before the
// new resource may use the memory.
type occupant struct {
	present  bool
	pipeline Pipeline
	res      *Resource
}

type byteRange struct {
	offset uint64
	size   uint64
	occupant
}

type committed struct {
	rng      byteRange
	pipeline Pipeline
	res      *Resource
}

// Stats summarizes allocator occupancy, useful for a HUD or log line
// showing how much aliasing saved versus a naive sum-of-sizes budget.
type Stats struct {
	HeapSize          uint64
	PeakUsage         uint64
	ActiveAllocations int
	BytesSavedByAliasing uint64
}

// Allocator places transient resources into one growable, aliased
// memory heap: AcquireResources hands out byte ranges, ReleaseResources
// returns them to a coalesced free list (mirroring
// descriptor.Allocator's free-list algorithm, but over bytes instead of
// descriptor slots), so a later pass's resources can reuse memory a
// finished pass no longer needs.
//
// Allocator is single-threaded: render-graph execution determines
// acquire/release order, so there is never a need to serialize it
// internally.
type Allocator struct {
	device gpu.Device

	heapSize uint64
	free     []byteRange
	live     []committed

	// maxHeapSize bounds how far alloc will grow the heap; 0 means
	// unbounded. Resources that do not fit within the bound are left
	// unplaced (r.placed stays false) rather than growing past it.
	maxHeapSize uint64

	stats Stats

	asyncBudget AsyncComputeBudget

	graphicsFence     gpu.Fence
	graphicsFenceWait uint64
	computeFence      gpu.Fence
	computeFenceWait  uint64
}

// NewAllocator creates an empty transient allocator. The heap grows on
// demand as AcquireResources needs more room than has ever been used.
func NewAllocator(device gpu.Device) *Allocator {
	return &Allocator{device: device, asyncBudget: AsyncComputeBudgetHalf}
}

// SetHeapBounds reserves initial bytes up front and caps growth at max
// bytes (0 means unbounded growth, matching NewAllocator's default).
// Intended to be called once, right after construction, from the
// initial/max heap-size tunables.
func (a *Allocator) SetHeapBounds(initial, max uint64) {
	if initial > 0 && len(a.free) == 0 && a.heapSize == 0 {
		a.free = append(a.free, byteRange{offset: 0, size: initial})
		a.heapSize = initial
	}
	a.maxHeapSize = max
}

// SetAsyncComputeBudget stores the async-compute budget. Placement does
// not consult it: AcquireResourcesForPipeline places PipelineAsyncCompute
// resources from the same free list as graphics resources, with no cap on
// how much of the heap they occupy.
func (a *Allocator) SetAsyncComputeBudget(budget AsyncComputeBudget) {
	a.asyncBudget = budget
}

// SetAllocationFences supplies the fences AcquireResourcesForPipeline
// waits on before handing out memory last written by the other pipeline,
// and the value each fence must reach to know that pipeline's queue has
// finished the work that wrote there. Callers update graphicsValue /
// computeValue as they signal each pass's completion value, so the next
// cross-pipeline reuse waits on the right target rather than whatever was
// true when the fences were first wired in.
func (a *Allocator) SetAllocationFences(graphics gpu.Fence, graphicsValue uint64, compute gpu.Fence, computeValue uint64) {
	a.graphicsFence = graphics
	a.graphicsFenceWait = graphicsValue
	a.computeFence = compute
	a.computeFenceWait = computeValue
}

// fenceFor returns the fence that signals pipeline p's queue progress, and
// the value it must currently reach to cover everything p has submitted.
func (a *Allocator) fenceFor(p Pipeline) (gpu.Fence, uint64) {
	if p == PipelineAsyncCompute {
		return a.computeFence, a.computeFenceWait
	}
	return a.graphicsFence, a.graphicsFenceWait
}

// AcquireResources places every not-yet-placed resource in resources
// into the heap, growing it if necessary. Already-placed resources are
// left untouched (idempotent re-acquire across the same pass). cmd may be
// nil, which skips aliasing-barrier emission (useful in tests that only
// exercise placement bookkeeping).
func (a *Allocator) AcquireResources(cmd gpu.CommandContext, resources []*Resource) {
	a.AcquireResourcesForPipeline(cmd, PipelineGraphics, resources)
}

// AcquireResourcesForPipeline is AcquireResources with explicit
// queue/pipeline attribution. When a resource lands on memory a previous
// occupant wrote, it emits cmd.ResourceAliasingBarrier (nil before for
// fresh memory) and, if the previous occupant ran on the other pipeline,
// waits on that pipeline's fence before handing the memory out — the
// actual synchronization that makes aliasing safe across concurrent
// graphics/async-compute queues.
func (a *Allocator) AcquireResourcesForPipeline(cmd gpu.CommandContext, pipeline Pipeline, resources []*Resource) {
	for _, r := range resources {
		if r.placed {
			continue
		}
		rng, ok := a.alloc(r.Size, r.Alignment)
		if !ok {
			// Exhausted: leave r unplaced rather than growing past
			// maxHeapSize. The caller is expected to check r.Placed()
			// and retry once memory frees up.
			continue
		}
		if rng.present {
			a.stats.BytesSavedByAliasing += r.Size
		}
		if rng.present && rng.pipeline != pipeline {
			if fence, waitVal := a.fenceFor(rng.pipeline); fence != nil {
				fence.Wait(waitVal, -1)
			}
		}
		if cmd != nil {
			var before gpu.Handle
			if rng.present {
				before = rng.res
			}
			cmd.ResourceAliasingBarrier(before, r)
		}
		r.placed = true
		r.offset = rng.offset
		r.pipeline = pipeline
		a.live = append(a.live, committed{rng: rng, pipeline: pipeline, res: r})
	}
	a.stats.ActiveAllocations = len(a.live)
	if a.heapSize > a.stats.PeakUsage {
		a.stats.PeakUsage = a.heapSize
	}
}

// ReleaseResources returns every placed resource in resources to the
// free list, coalescing it with adjacent free ranges that carry the same
// occupant tag so later acquisitions see longer contiguous runs;
// neighbours with a different tag stay separate. Each freed range is tagged with
// the resource and pipeline that last wrote it, so a later alloc from
// that range knows whether it needs a barrier or fence wait.
func (a *Allocator) ReleaseResources(resources []*Resource) {
	for _, r := range resources {
		if !r.placed {
			continue
		}
		for i, c := range a.live {
			if c.res == r {
				freed := c.rng
				freed.occupant = occupant{present: true, pipeline: c.pipeline, res: c.res}
				a.freeRange(freed)
				a.live = append(a.live[:i], a.live[i+1:]...)
				break
			}
		}
		r.placed = false
	}
	a.stats.ActiveAllocations = len(a.live)
}

// Stats returns a snapshot of current allocator occupancy.
func (a *Allocator) Stats() Stats {
	a.stats.HeapSize = a.heapSize
	return a.stats
}

func alignUp(v, alignment uint64) uint64 {
	if alignment <= 1 {
		return v
	}
	return (v + alignment - 1) &^ (alignment - 1)
}

// alloc first-fits size (rounded up to alignment) out of the free list,
// growing the heap when nothing fits. Returns ok=false, leaving the heap
// untouched, if growth would exceed maxHeapSize. The returned byteRange
// carries the occupant tag of the free-list entry it was carved from
// (zero-value/absent if it came from growing the heap), so the caller
// knows whether the memory needs an aliasing barrier or fence wait.
func (a *Allocator) alloc(size, alignment uint64) (byteRange, bool) {
	if alignment == 0 {
		alignment = 1
	}
	for i, r := range a.free {
		start := alignUp(r.offset, alignment)
		pad := start - r.offset
		if r.size < pad+size {
			continue
		}
		rng := byteRange{offset: start, size: size, occupant: r.occupant}
		remainderStart := start + size
		remainderEnd := r.offset + r.size
		var replacement []byteRange
		if pad > 0 {
			replacement = append(replacement, byteRange{offset: r.offset, size: pad, occupant: r.occupant})
		}
		if remainderEnd > remainderStart {
			replacement = append(replacement, byteRange{offset: remainderStart, size: remainderEnd - remainderStart, occupant: r.occupant})
		}
		a.free = append(a.free[:i], append(replacement, a.free[i+1:]...)...)
		return rng, true
	}

	start := alignUp(a.heapSize, alignment)
	pad := start - a.heapSize
	if a.maxHeapSize > 0 && start+size > a.maxHeapSize {
		return byteRange{}, false
	}
	if pad > 0 {
		a.free = append(a.free, byteRange{offset: a.heapSize, size: pad})
	}
	a.heapSize = start + size
	return byteRange{offset: start, size: size}, true
}

func (a *Allocator) freeRange(rng byteRange) {
	leftIdx, rightIdx := -1, -1
	for i, r := range a.free {
		if r.offset+r.size == rng.offset && r.occupant == rng.occupant {
			leftIdx = i
		}
		if rng.offset+rng.size == r.offset && r.occupant == rng.occupant {
			rightIdx = i
		}
	}
	switch {
	case leftIdx >= 0 && rightIdx >= 0:
		a.free[leftIdx].size += rng.size + a.free[rightIdx].size
		a.free[leftIdx].occupant = rng.occupant
		last := len(a.free) - 1
		a.free[rightIdx] = a.free[last]
		a.free = a.free[:last]
	case leftIdx >= 0:
		a.free[leftIdx].size += rng.size
		a.free[leftIdx].occupant = rng.occupant
	case rightIdx >= 0:
		a.free[rightIdx].offset = rng.offset
		a.free[rightIdx].size += rng.size
		a.free[rightIdx].occupant = rng.occupant
	default:
		a.free = append(a.free, rng)
	}
}
