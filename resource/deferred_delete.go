package resource

import (
	"log/slog"
	"sync"

	"github.com/nsrhi/rhi/gpu"
)

// PressureLevel classifies how deep the deferred-delete backlog has grown.
// The queue never allocates or frees memory in response to pressure; it
// only signals so a caller upstream (e.g. a streaming system) can throttle
// itself.
type PressureLevel uint8

const (
	// PressureNone means the queue depth is below the configured threshold.
	PressureNone PressureLevel = iota
	// PressureMedium means depth >= 1x threshold.
	PressureMedium
	// PressureHigh means depth >= 2x threshold.
	PressureHigh
	// PressureCritical means depth >= 4x threshold.
	PressureCritical
)

// String renders the level for logging.
func (l PressureLevel) String() string {
	switch l {
	case PressureNone:
		return "none"
	case PressureMedium:
		return "medium"
	case PressureHigh:
		return "high"
	case PressureCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// PressureHandler is notified whenever the queue's pressure level changes.
// Implementations must not block or allocate/free GPU resources from
// within the callback; it runs under the queue's lock.
type PressureHandler interface {
	NotifyPressureChange(level PressureLevel)
}

type deferredEntry struct {
	res         Releasable
	fence       gpu.Fence // nil for frame-based entries
	fenceValue  uint64
	frameNumber uint64
}

// DeferredDeleteQueueConfig tunes release latency and pressure reporting.
type DeferredDeleteQueueConfig struct {
	// MaxDeferredFrames bounds how long a frame-based entry waits before
	// being released unconditionally. Default 3.
	MaxDeferredFrames uint64
	// PressureThreshold is the queue depth at which PressureMedium fires.
	// High fires at 2x, Critical at 4x. Default 256.
	PressureThreshold int
}

// DefaultDeferredDeleteQueueConfig returns the engine defaults from the
// tunable configuration table.
func DefaultDeferredDeleteQueueConfig() DeferredDeleteQueueConfig {
	return DeferredDeleteQueueConfig{
		MaxDeferredFrames: 3,
		PressureThreshold: 256,
	}
}

// DeferredDeleteQueue is a threadsafe FIFO of resources awaiting release.
// A resource enqueued here is never freed inline: it is freed only once
// the GPU has provably finished with it (fence-based) or enough frames
// have elapsed that it is assumed safe (frame-based).
//
// DeferredDeleteQueue is fully thread-safe; every exported method takes
// the internal mutex.
type DeferredDeleteQueue struct {
	mu   sync.Mutex
	cfg  DeferredDeleteQueueConfig
	list []deferredEntry

	currentFrame uint64
	pressure     PressureLevel
	handler      PressureHandler
	log          *slog.Logger
}

// NewDeferredDeleteQueue creates a queue with the given configuration.
// handler may be nil if pressure notifications are not needed. log may be
// nil, in which case the queue discards its log output.
func NewDeferredDeleteQueue(cfg DeferredDeleteQueueConfig, handler PressureHandler, log *slog.Logger) *DeferredDeleteQueue {
	if cfg.MaxDeferredFrames == 0 {
		cfg.MaxDeferredFrames = 3
	}
	if cfg.PressureThreshold <= 0 {
		cfg.PressureThreshold = 256
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &DeferredDeleteQueue{cfg: cfg, handler: handler, log: log}
}

// enqueueFrameBased is called by Base.Release when a resource's refcount
// reaches zero without an explicit fence.
func (q *DeferredDeleteQueue) enqueueFrameBased(res Releasable) {
	q.mu.Lock()
	q.list = append(q.list, deferredEntry{res: res, frameNumber: q.currentFrame})
	q.afterEnqueueLocked()
	q.mu.Unlock()
}

// enqueueFenceBased is called by Base.ReleaseWithFence.
func (q *DeferredDeleteQueue) enqueueFenceBased(res Releasable, fence gpu.Fence, value uint64) {
	q.mu.Lock()
	q.list = append(q.list, deferredEntry{res: res, fence: fence, fenceValue: value, frameNumber: q.currentFrame})
	q.afterEnqueueLocked()
	q.mu.Unlock()
}

// Enqueue exposes fence-based enqueue for callers that construct a
// Releasable outside of Base (e.g. a test double). Ordinary resources
// should go through Base.ReleaseWithFence instead.
func (q *DeferredDeleteQueue) Enqueue(res Releasable, fence gpu.Fence, value uint64) {
	if fence == nil {
		q.enqueueFrameBased(res)
		return
	}
	q.enqueueFenceBased(res, fence, value)
}

// FreeImmediately bypasses the queue entirely and releases res right now.
// Intended only for callers that hold a stronger guarantee than the queue
// can provide (e.g. the GPU is already known to be idle).
func FreeImmediately(res Releasable) {
	if res == nil {
		return
	}
	res.releaseNow()
}

func (q *DeferredDeleteQueue) afterEnqueueLocked() {
	depth := len(q.list)
	level := PressureNone
	switch {
	case depth >= q.cfg.PressureThreshold*4:
		level = PressureCritical
	case depth >= q.cfg.PressureThreshold*2:
		level = PressureHigh
	case depth >= q.cfg.PressureThreshold:
		level = PressureMedium
	}
	if level != q.pressure {
		q.pressure = level
		if q.handler != nil {
			q.handler.NotifyPressureChange(level)
		}
		q.log.Debug("deferred-delete pressure changed", "level", level.String(), "depth", depth)
	}
}

// BeginFrame advances the queue's notion of the current frame number.
// Frame-based entries become eligible once currentFrame - frameNumber >=
// MaxDeferredFrames.
func (q *DeferredDeleteQueue) BeginFrame(frameNumber uint64) {
	q.mu.Lock()
	q.currentFrame = frameNumber
	q.mu.Unlock()
}

// Depth returns the number of entries currently pending release.
func (q *DeferredDeleteQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.list)
}

// PressureLevel returns the most recently published pressure level.
func (q *DeferredDeleteQueue) PressureLevel() PressureLevel {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pressure
}

// ProcessCompletedDeletions releases every entry whose gate condition is
// now true and returns how many were released. Entries whose fence has
// not yet reached their value, or whose frame latency has not elapsed,
// remain queued for a later call.
func (q *DeferredDeleteQueue) ProcessCompletedDeletions() int {
	q.mu.Lock()
	kept := q.list[:0]
	var ready []Releasable
	for _, e := range q.list {
		if q.isReadyLocked(e) {
			ready = append(ready, e.res)
		} else {
			kept = append(kept, e)
		}
	}
	q.list = kept
	released := len(ready)
	q.afterEnqueueLocked()
	q.mu.Unlock()

	for _, r := range ready {
		q.releaseOne(r)
	}
	return released
}

func (q *DeferredDeleteQueue) isReadyLocked(e deferredEntry) bool {
	if e.fence != nil {
		return e.fence.IsCompleted(e.fenceValue)
	}
	return q.currentFrame-e.frameNumber >= q.cfg.MaxDeferredFrames
}

func (q *DeferredDeleteQueue) releaseOne(r Releasable) {
	defer func() {
		if rec := recover(); rec != nil {
			q.log.Error("deferred-delete: release panicked, continuing", "panic", rec)
		}
	}()
	r.releaseNow()
}

// Flush releases every pending entry unconditionally, regardless of fence
// or frame gating. The caller must have GPU-idled first; this is meant for
// shutdown only.
func (q *DeferredDeleteQueue) Flush() int {
	q.mu.Lock()
	all := q.list
	q.list = nil
	q.afterEnqueueLocked()
	q.mu.Unlock()

	for _, e := range all {
		q.releaseOne(e.res)
	}
	return len(all)
}
