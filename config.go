package rhi

import (
	"github.com/nsrhi/rhi/descriptor"
	"github.com/nsrhi/rhi/resource"
	"github.com/nsrhi/rhi/transient"
)

// Config aggregates every subsystem's tunable configuration behind one
// struct, so an embedder can override exactly the fields it cares about
// and construct every subsystem from a single DefaultConfig() starting
// point. Config is read once at subsystem construction time; nothing in
// this module re-reads it afterward.
type Config struct {
	DeferredDelete  resource.DeferredDeleteQueueConfig
	OnlineCbvSrvUav descriptor.OnlineRingConfig
	OnlineSampler   descriptor.OnlineRingConfig
	Offline         descriptor.OfflineManagerConfig

	// BindlessDescriptorCount and BindlessSamplerCount are clamped to the
	// hardware maxima by descriptor.NewBindlessHeap regardless of the
	// values supplied here.
	BindlessDescriptorCount uint32
	BindlessSamplerCount    uint32

	TransientHeapInitial uint64
	TransientHeapMax     uint64
	AllowTransientGrowth bool
	AsyncComputeBudget   transient.AsyncComputeBudget

	BufferPool transient.BufferPoolConfig
}

// DefaultConfig returns the tunable defaults enumerated for this core:
// 3 deferred frames, pressure threshold 256, 3 buffered ring frames, a
// 10^6-slot CBV/SRV/UAV ring and 2048-slot sampler ring, a 256 MB initial
// / 1 GB max transient heap with growth allowed, and a half-split
// async-compute budget.
func DefaultConfig() Config {
	return Config{
		DeferredDelete: resource.DefaultDeferredDeleteQueueConfig(),
		OnlineCbvSrvUav: descriptor.OnlineRingConfig{
			Count:          1_000_000,
			BufferedFrames: 3,
		},
		OnlineSampler: descriptor.OnlineRingConfig{
			Count:          2048,
			BufferedFrames: 3,
		},
		Offline:                 descriptor.DefaultOfflineManagerConfig(),
		BindlessDescriptorCount: 1_000_000,
		BindlessSamplerCount:    2048,
		TransientHeapInitial:    256 << 20,
		TransientHeapMax:        1 << 30,
		AllowTransientGrowth:    true,
		AsyncComputeBudget:      transient.AsyncComputeBudgetHalf,
		BufferPool:              transient.DefaultBufferPoolConfig(),
	}
}
