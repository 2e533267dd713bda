// Package resource implements the uniform ownership primitive every GPU
// object in the RHI core is built on, plus the deferred-delete queue that
// routes releases through GPU-progress gating instead of freeing inline.
package resource

import (
	"fmt"
	"sync/atomic"

	"github.com/nsrhi/rhi/gpu"
)

// Releasable is implemented by anything that knows how to free its own
// backend handle once the deferred-delete queue decides it is safe to do
// so. Buffer and Texture implement this by releasing their gpu.Raw*
// handle.
type Releasable interface {
	releaseNow()
}

// Base is embedded by Buffer and Texture; descriptor heaps, shaders,
// samplers and root signatures do not embed it. It provides atomic
// reference counting and routes the last release through a
// DeferredDeleteQueue rather than freeing the backend handle inline.
//
// Base is safe for concurrent use: AddRef/Release use atomic operations.
type Base struct {
	refCount int32
	name     string
	queue    *DeferredDeleteQueue
	self     Releasable
}

// Init must be called once by the concrete resource's constructor, after
// embedding Base, to wire up the name, the queue it will enqueue itself on
// at zero refs, and the Releasable that performs the actual free.
func (b *Base) Init(name string, queue *DeferredDeleteQueue, self Releasable) {
	b.refCount = 1
	b.name = name
	b.queue = queue
	b.self = self
}

// DebugName returns the name the resource was created with.
func (b *Base) DebugName() string { return b.name }

// RefCount returns the current reference count. Intended for diagnostics
// and tests; never race-free against concurrent AddRef/Release, only
// monotonic-enough to assert on in a quiescent test.
func (b *Base) RefCount() int32 { return atomic.LoadInt32(&b.refCount) }

// AddRef increments the reference count and returns the new count.
func (b *Base) AddRef() int32 {
	return atomic.AddInt32(&b.refCount, 1)
}

// Release decrements the reference count. When it reaches zero the
// resource is hinted into the deferred-delete queue; it is not freed by
// this call. Release is safe to call from any thread.
func (b *Base) Release() int32 {
	n := atomic.AddInt32(&b.refCount, -1)
	if n < 0 {
		panic(fmt.Sprintf("resource: over-release of %q (refcount went negative)", b.name))
	}
	if n == 0 && b.queue != nil && b.self != nil {
		b.queue.enqueueFrameBased(b.self)
	}
	return n
}

// ReleaseWithFence decrements the reference count and, if it reaches zero,
// enqueues the resource to be released only once fence.IsCompleted(value)
// is true. Used by call sites that know precisely which GPU submission
// last touched the resource, avoiding the coarser frame-based latency.
func (b *Base) ReleaseWithFence(fence gpu.Fence, value uint64) int32 {
	n := atomic.AddInt32(&b.refCount, -1)
	if n < 0 {
		panic(fmt.Sprintf("resource: over-release of %q (refcount went negative)", b.name))
	}
	if n == 0 && b.queue != nil && b.self != nil {
		b.queue.enqueueFenceBased(b.self, fence, value)
	}
	return n
}
