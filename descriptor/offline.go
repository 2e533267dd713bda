package descriptor

import "github.com/nsrhi/rhi/gpu"

// OfflineManagerConfig sizes the four CPU-only staging heaps.
type OfflineManagerConfig struct {
	CbvSrvUavCount uint32
	SamplerCount   uint32
	RTVCount       uint32
	DSVCount       uint32
}

// DefaultOfflineManagerConfig returns reasonable staging-heap sizes. These
// heaps only ever hold one descriptor per live view, so they can be much
// smaller than the online ring.
func DefaultOfflineManagerConfig() OfflineManagerConfig {
	return OfflineManagerConfig{
		CbvSrvUavCount: 4096,
		SamplerCount:   512,
		RTVCount:       256,
		DSVCount:       256,
	}
}

// OfflineManager owns the four CPU-only staging heaps used to create view
// descriptors at resource-create time: CBV/SRV/UAV, Sampler, RTV, DSV.
// Each type has its own heap and allocator; none are shader-visible.
//
// OfflineManager is single-threaded per type; callers that stage views
// from multiple threads should take an external mutex per type (or one
// global mutex, if contention is not a concern).
type OfflineManager struct {
	heaps [4]*Heap
	allocs [4]*Allocator
}

func offlineIndex(t gpu.HeapType) int {
	switch t {
	case gpu.HeapTypeCbvSrvUav:
		return 0
	case gpu.HeapTypeSampler:
		return 1
	case gpu.HeapTypeRTV:
		return 2
	case gpu.HeapTypeDSV:
		return 3
	default:
		return -1
	}
}

// NewOfflineManager creates the four staging heaps and their allocators.
func NewOfflineManager(device gpu.Device, cfg OfflineManagerConfig) (*OfflineManager, error) {
	sizes := [4]uint32{cfg.CbvSrvUavCount, cfg.SamplerCount, cfg.RTVCount, cfg.DSVCount}
	names := [4]string{"offline-cbv-srv-uav", "offline-sampler", "offline-rtv", "offline-dsv"}
	types := [4]gpu.HeapType{gpu.HeapTypeCbvSrvUav, gpu.HeapTypeSampler, gpu.HeapTypeRTV, gpu.HeapTypeDSV}

	m := &OfflineManager{}
	for i := range sizes {
		heap, err := NewHeap(device, gpu.DescriptorHeapDesc{
			Type:           types[i],
			NumDescriptors: sizes[i],
			ShaderVisible:  false,
		}, names[i])
		if err != nil {
			m.shutdownUpTo(i)
			return nil, err
		}
		m.heaps[i] = heap
		m.allocs[i] = NewAllocator(heap)
	}
	return m, nil
}

// Allocate carves a slot run of count descriptors from the CPU-only heap of
// the given type.
func (m *OfflineManager) Allocate(t gpu.HeapType, count uint32) Allocation {
	i := offlineIndex(t)
	if i < 0 {
		return Allocation{}
	}
	return m.allocs[i].Allocate(count)
}

// Free returns alloc to its type's allocator.
func (m *OfflineManager) Free(t gpu.HeapType, alloc Allocation) {
	i := offlineIndex(t)
	if i < 0 {
		return
	}
	m.allocs[i].Free(alloc)
}

// Heap returns the backing heap for the given type, so staging can copy
// out of it.
func (m *OfflineManager) Heap(t gpu.HeapType) *Heap {
	i := offlineIndex(t)
	if i < 0 {
		return nil
	}
	return m.heaps[i]
}

func (m *OfflineManager) shutdownUpTo(n int) {
	for i := 0; i < n; i++ {
		m.allocs[i] = nil
		if m.heaps[i] != nil {
			m.heaps[i].Destroy()
		}
	}
}

// Shutdown releases allocator state then the four backing heaps, in that
// order: allocator slots first, heap second, mirroring the lifetime rule
// that a heap must outlive every allocation drawn from it.
func (m *OfflineManager) Shutdown() {
	for i := range m.heaps {
		m.allocs[i] = nil
	}
	for i := range m.heaps {
		if m.heaps[i] != nil {
			m.heaps[i].Destroy()
			m.heaps[i] = nil
		}
	}
}
