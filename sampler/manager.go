package sampler

import (
	"fmt"

	"github.com/nsrhi/rhi/descriptor"
	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

const maxNamedSamplers = 64

type namedSlot struct {
	used bool
	name string
	raw  gpu.RawSampler
	desc gputype.SamplerDescriptor
	// bindlessIndex is set when the sampler has been registered into a
	// BindlessHeap for shader-side indexing.
	bindlessIndex descriptor.BindlessIndex
}

// Manager is a small, name-keyed registry of user-visible samplers (the
// handful a material system exposes as "Albedo Sampler", "Shadow
// Sampler", and so on), layered on top of the content-addressed Cache so
// two names that happen to describe the same state still share one
// backend sampler.
//
// Manager is single-threaded; callers registering samplers from multiple
// goroutines must serialize externally.
type Manager struct {
	cache    *Cache
	bindless *descriptor.BindlessHeap
	slots    [maxNamedSamplers]namedSlot
}

// NewManager creates a manager backed by cache. bindless may be nil if
// the caller never needs shader-indexable sampler slots.
func NewManager(cache *Cache, bindless *descriptor.BindlessHeap) *Manager {
	return &Manager{cache: cache, bindless: bindless}
}

func (m *Manager) find(name string) int {
	for i := range m.slots {
		if m.slots[i].used && m.slots[i].name == name {
			return i
		}
	}
	return -1
}

// Register creates (or looks up, via the cache) the sampler for desc and
// binds it to name. Registering the same name again overwrites the
// previous binding, unregistering any bindless slot it held.
func (m *Manager) Register(name string, desc gputype.SamplerDescriptor) (gpu.RawSampler, error) {
	raw, err := m.cache.GetOrCreate(desc)
	if err != nil {
		return nil, err
	}

	idx := m.find(name)
	if idx < 0 {
		idx = -1
		for i := range m.slots {
			if !m.slots[i].used {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("sampler: named registry full (max %d)", maxNamedSamplers)
		}
	} else if m.bindless != nil && m.slots[idx].bindlessIndex != descriptor.InvalidBindlessIndex {
		m.bindless.UnregisterSampler(m.slots[idx].bindlessIndex)
	}

	m.slots[idx] = namedSlot{used: true, name: name, raw: raw, desc: desc, bindlessIndex: descriptor.InvalidBindlessIndex}
	return raw, nil
}

// Get returns the sampler registered under name, if any.
func (m *Manager) Get(name string) (gpu.RawSampler, bool) {
	idx := m.find(name)
	if idx < 0 {
		return nil, false
	}
	return m.slots[idx].raw, true
}

// RegisterBindless registers name's sampler into the bindless sampler
// heap (via offlineHeap/offlineIndex, the offline-staged view of it) and
// returns its shader-indexable slot. Requires a non-nil bindless heap.
func (m *Manager) RegisterBindless(name string, offlineHeap *descriptor.Heap, offlineIndex uint32) (descriptor.BindlessIndex, error) {
	if m.bindless == nil {
		return descriptor.InvalidBindlessIndex, fmt.Errorf("sampler: no bindless heap configured")
	}
	idx := m.find(name)
	if idx < 0 {
		return descriptor.InvalidBindlessIndex, fmt.Errorf("sampler: %q not registered", name)
	}
	bidx := m.bindless.RegisterSampler(offlineHeap, offlineIndex)
	m.slots[idx].bindlessIndex = bidx
	return bidx, nil
}
