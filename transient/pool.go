package transient

import (
	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

type poolKey struct {
	size  uint64
	usage gputype.BufferUsage
}

type pooledBuffer struct {
	raw      gpu.RawBuffer
	key      poolKey
	inUse    bool
	idleSince uint64
}

// BufferPoolConfig controls how long an idle buffer survives before the
// pool destroys it.
type BufferPoolConfig struct {
	MaxIdleFrames uint64
}

// DefaultBufferPoolConfig keeps idle transient buffers around for a few
// frames, since the same size/usage combination is typically requested
// again on the very next frame.
func DefaultBufferPoolConfig() BufferPoolConfig {
	return BufferPoolConfig{MaxIdleFrames: 4}
}

// BufferPool recycles transient GPU buffers by (size, usage): Acquire
// returns an idle buffer matching the request if one exists, or creates
// a new one; Release marks a buffer idle instead of destroying it;
// OnFrameEnd destroys buffers that have sat idle past MaxIdleFrames.
//
// BufferPool is single-threaded, matching the rest of the transient
// allocator's per-frame, single-owner concurrency model.
type BufferPool struct {
	device  gpu.Device
	cfg     BufferPoolConfig
	byKey   map[poolKey][]*pooledBuffer
	current uint64
}

// NewBufferPool creates a pool backed by device.
func NewBufferPool(device gpu.Device, cfg BufferPoolConfig) *BufferPool {
	if cfg.MaxIdleFrames == 0 {
		cfg.MaxIdleFrames = 4
	}
	return &BufferPool{device: device, cfg: cfg, byKey: make(map[poolKey][]*pooledBuffer)}
}

// Acquire returns a buffer of exactly the given size and usage, reusing
// an idle one if available.
func (p *BufferPool) Acquire(size uint64, usage gputype.BufferUsage) (gpu.RawBuffer, error) {
	key := poolKey{size: size, usage: usage}
	for _, pb := range p.byKey[key] {
		if !pb.inUse {
			pb.inUse = true
			return pb.raw, nil
		}
	}

	raw, err := p.device.CreateBuffer(gputype.BufferDescriptor{Size: size, Usage: usage}, "transient-buffer")
	if err != nil {
		return nil, err
	}
	pb := &pooledBuffer{raw: raw, key: key, inUse: true}
	p.byKey[key] = append(p.byKey[key], pb)
	return raw, nil
}

// Release marks raw idle, making it eligible for reuse by a future
// Acquire of the same size/usage, or for destruction after it has sat
// idle past MaxIdleFrames.
func (p *BufferPool) Release(raw gpu.RawBuffer) {
	for _, list := range p.byKey {
		for _, pb := range list {
			if pb.raw == raw {
				pb.inUse = false
				pb.idleSince = p.current
				return
			}
		}
	}
}

// OnFrameEnd advances the pool's frame counter and destroys every idle
// buffer that has exceeded MaxIdleFrames.
func (p *BufferPool) OnFrameEnd() {
	p.current++
	for key, list := range p.byKey {
		kept := list[:0]
		for _, pb := range list {
			if !pb.inUse && p.current-pb.idleSince >= p.cfg.MaxIdleFrames {
				p.device.DestroyBuffer(pb.raw)
				continue
			}
			kept = append(kept, pb)
		}
		p.byKey[key] = kept
	}
}

// Len returns the total number of buffers currently tracked (in use or
// idle), for diagnostics and tests.
func (p *BufferPool) Len() int {
	n := 0
	for _, list := range p.byKey {
		n += len(list)
	}
	return n
}
