package diag

import (
	"fmt"
	"time"

	"github.com/nsrhi/rhi/gpu"
)

// QueryBlock is one begin/end pair of timestamp query slots reserved
// from a query heap for a single named GPU timer.
type QueryBlock struct {
	Name       string
	BeginIndex uint32
	EndIndex   uint32
	frame      uint64
}

// TimerResult is a resolved GPU timer measurement.
type TimerResult struct {
	Name     string
	Duration time.Duration
}

// frameRecord tracks the query blocks opened in one frame, so results
// can be looked up once that frame's fence has signaled.
type frameRecord struct {
	frame  uint64
	blocks []QueryBlock
	fence  gpu.Fence
	value  uint64
}

// GPUTimer manages a query heap's worth of begin/end timestamp pairs
// across a small ring of in-flight frames, resolving durations once the
// GPU has signaled that frame's values are ready.
//
// GPUTimer is single-threaded: one timer belongs to one recording
// context, matching descriptor.OnlineRing's concurrency contract.
type GPUTimer struct {
	heap      gpu.RawDescriptorHeap // unused placeholder for a real timestamp query heap in a full backend; kept so WriteTimestamp call sites have something concrete to pass
	device    gpu.Device
	frequency uint64

	nextSlot   uint32
	maxSlots   uint32
	current    *frameRecord
	inFlight   []*frameRecord
	readback   map[uint32]int64 // slot -> raw timestamp, populated by ResolveTimestamps
}

// NewGPUTimer creates a timer with room for maxSlots timestamp query
// slots (two per QueryBlock: begin and end).
func NewGPUTimer(device gpu.Device, maxSlots uint32) (*GPUTimer, error) {
	freq, err := device.GetTimestampFrequency()
	if err != nil {
		return nil, fmt.Errorf("diag: reading timestamp frequency: %w", err)
	}
	return &GPUTimer{
		device:    device,
		frequency: freq,
		maxSlots:  maxSlots,
		readback:  make(map[uint32]int64),
	}, nil
}

// BeginFrame starts a new frame's worth of timer blocks.
func (t *GPUTimer) BeginFrame(frame uint64) {
	t.current = &frameRecord{frame: frame}
	t.nextSlot = 0
}

// BeginTimer reserves a begin/end slot pair for a named timer and
// records the begin timestamp via cmd.WriteTimestamp.
func (t *GPUTimer) BeginTimer(cmd gpu.CommandContext, name string) (*QueryBlock, error) {
	if t.nextSlot+2 > t.maxSlots {
		return nil, fmt.Errorf("diag: timestamp query heap exhausted (%d slots)", t.maxSlots)
	}
	qb := QueryBlock{Name: name, BeginIndex: t.nextSlot, EndIndex: t.nextSlot + 1, frame: t.current.frame}
	t.nextSlot += 2
	cmd.WriteTimestamp(t.heap, qb.BeginIndex)
	t.current.blocks = append(t.current.blocks, qb)
	return &t.current.blocks[len(t.current.blocks)-1], nil
}

// EndTimer records the end timestamp for a block opened with
// BeginTimer.
func (t *GPUTimer) EndTimer(cmd gpu.CommandContext, qb *QueryBlock) {
	cmd.WriteTimestamp(t.heap, qb.EndIndex)
}

// EndFrame closes out the current frame's blocks, associating them with
// fence/value so AreResultsReady and GetTimerResult know when they can
// be resolved.
func (t *GPUTimer) EndFrame(fence gpu.Fence, value uint64) {
	t.current.fence = fence
	t.current.value = value
	t.inFlight = append(t.inFlight, t.current)
	t.current = nil
}

// AreResultsReady reports whether the given frame's timer blocks have
// had their fence signal, meaning the raw timestamps are safe to read
// back from the query heap's resolve buffer.
func (t *GPUTimer) AreResultsReady(frame uint64) bool {
	for _, rec := range t.inFlight {
		if rec.frame == frame {
			return rec.fence == nil || rec.fence.IsCompleted(rec.value)
		}
	}
	return false
}

// SetRawTimestamps supplies resolved raw GPU timestamp values for query
// slots, as read back from the backend's resolve buffer. This is the
// seam a real backend uses to hand the timer actual hardware data.
func (t *GPUTimer) SetRawTimestamps(values map[uint32]int64) {
	for slot, v := range values {
		t.readback[slot] = v
	}
}

// GetTimerResult resolves every block of frame into a duration, once
// AreResultsReady(frame) is true and SetRawTimestamps has supplied the
// relevant slots. Also prunes frame from the in-flight list.
func (t *GPUTimer) GetTimerResult(frame uint64) ([]TimerResult, error) {
	if !t.AreResultsReady(frame) {
		return nil, fmt.Errorf("diag: frame %d results not ready", frame)
	}
	var rec *frameRecord
	idx := -1
	for i, r := range t.inFlight {
		if r.frame == frame {
			rec = r
			idx = i
			break
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("diag: frame %d not tracked", frame)
	}

	results := make([]TimerResult, 0, len(rec.blocks))
	for _, qb := range rec.blocks {
		beginTS, ok1 := t.readback[qb.BeginIndex]
		endTS, ok2 := t.readback[qb.EndIndex]
		if !ok1 || !ok2 {
			continue
		}
		ticks := endTS - beginTS
		dur := time.Duration(float64(ticks) / float64(t.frequency) * float64(time.Second))
		results = append(results, TimerResult{Name: qb.Name, Duration: dur})
	}

	t.inFlight = append(t.inFlight[:idx], t.inFlight[idx+1:]...)
	return results, nil
}
