package descriptor

import "github.com/nsrhi/rhi/gpu"

// BindlessIndex is a stable slot index into a BindlessHeap, suitable for
// embedding directly in a shader constant buffer.
type BindlessIndex uint32

// InvalidBindlessIndex marks an unallocated slot.
const InvalidBindlessIndex BindlessIndex = 0xFFFFFFFF

const (
	maxBindlessResourceSlots = 1_000_000
	maxBindlessSamplerSlots  = 2048
)

// BindlessHeap is a large, permanent, shader-visible heap that resources
// register into once and reference by a stable index for their lifetime,
// instead of being bound per draw call. One heap holds CBV/SRV/UAV slots
// (bounded at maxBindlessResourceSlots); a second, much smaller heap
// holds sampler slots (bounded at maxBindlessSamplerSlots, matching the
// D3D12 shader-visible sampler heap hardware limit).
//
// BindlessHeap is single-threaded; callers serialize registration the
// same way they serialize any other descriptor heap mutation.
type BindlessHeap struct {
	device gpu.Device

	resourceHeap  *Heap
	resourceAlloc *Allocator

	samplerHeap  *Heap
	samplerAlloc *Allocator

	// owners tracks which indices a given resource handle has registered,
	// so UnregisterResource can free them all without the caller having
	// to remember each one.
	owners map[interface{}][]BindlessIndex
}

// NewBindlessHeap creates the resource and sampler bindless heaps, sized
// to resourceCount and samplerCount (each clamped to the hardware-backed
// maximum).
func NewBindlessHeap(device gpu.Device, resourceCount, samplerCount uint32) (*BindlessHeap, error) {
	if resourceCount > maxBindlessResourceSlots {
		resourceCount = maxBindlessResourceSlots
	}
	if samplerCount > maxBindlessSamplerSlots {
		samplerCount = maxBindlessSamplerSlots
	}

	resHeap, err := NewHeap(device, gpu.DescriptorHeapDesc{
		Type:           gpu.HeapTypeCbvSrvUav,
		NumDescriptors: resourceCount,
		ShaderVisible:  true,
	}, "bindless-cbv-srv-uav")
	if err != nil {
		return nil, err
	}
	smpHeap, err := NewHeap(device, gpu.DescriptorHeapDesc{
		Type:           gpu.HeapTypeSampler,
		NumDescriptors: samplerCount,
		ShaderVisible:  true,
	}, "bindless-sampler")
	if err != nil {
		resHeap.Destroy()
		return nil, err
	}

	return &BindlessHeap{
		device:        device,
		resourceHeap:  resHeap,
		resourceAlloc: NewAllocator(resHeap),
		samplerHeap:   smpHeap,
		samplerAlloc:  NewAllocator(smpHeap),
		owners:        make(map[interface{}][]BindlessIndex),
	}, nil
}

// Allocate reserves a single resource slot.
func (b *BindlessHeap) Allocate() BindlessIndex {
	alloc := b.resourceAlloc.Allocate(1)
	if !alloc.IsValid() {
		return InvalidBindlessIndex
	}
	return BindlessIndex(alloc.FirstIndex())
}

// AllocateRange reserves count contiguous resource slots, for e.g. a
// texture array registering all of its mips/slices at once. Returns
// InvalidBindlessIndex if no contiguous run of that size is free.
func (b *BindlessHeap) AllocateRange(count uint32) BindlessIndex {
	alloc := b.resourceAlloc.Allocate(count)
	if !alloc.IsValid() {
		return InvalidBindlessIndex
	}
	return BindlessIndex(alloc.FirstIndex())
}

// Free returns a single resource slot (or the first slot of a range
// previously handed out by AllocateRange; use FreeRange for multi-slot
// ranges so coalescing sees the right length).
func (b *BindlessHeap) Free(index BindlessIndex) {
	b.resourceAlloc.Free(Allocation{heap: b.resourceHeap, first: uint32(index), count: 1})
}

// FreeRange returns count contiguous resource slots starting at index.
func (b *BindlessHeap) FreeRange(index BindlessIndex, count uint32) {
	b.resourceAlloc.Free(Allocation{heap: b.resourceHeap, first: uint32(index), count: count})
}

// SetSRV copies an SRV from the offline heap into resource slot index.
func (b *BindlessHeap) SetSRV(index BindlessIndex, offlineHeap *Heap, offlineIndex uint32) {
	b.device.CopyDescriptors(b.resourceHeap.Raw(), uint32(index), offlineHeap.Raw(), offlineIndex, 1, gpu.HeapTypeCbvSrvUav)
}

// SetUAV copies a UAV from the offline heap into resource slot index.
func (b *BindlessHeap) SetUAV(index BindlessIndex, offlineHeap *Heap, offlineIndex uint32) {
	b.device.CopyDescriptors(b.resourceHeap.Raw(), uint32(index), offlineHeap.Raw(), offlineIndex, 1, gpu.HeapTypeCbvSrvUav)
}

// SetCBV copies a CBV from the offline heap into resource slot index.
func (b *BindlessHeap) SetCBV(index BindlessIndex, offlineHeap *Heap, offlineIndex uint32) {
	b.device.CopyDescriptors(b.resourceHeap.Raw(), uint32(index), offlineHeap.Raw(), offlineIndex, 1, gpu.HeapTypeCbvSrvUav)
}

// CopyDescriptor copies count descriptors of type t from an offline heap
// starting at srcIndex into resource slots starting at dstIndex.
func (b *BindlessHeap) CopyDescriptor(dstIndex BindlessIndex, src *Heap, srcIndex uint32, count uint32, t gpu.HeapType) {
	b.device.CopyDescriptors(b.resourceHeap.Raw(), uint32(dstIndex), src.Raw(), srcIndex, count, t)
}

// GetGPUHandle resolves a resource slot to its GPU descriptor handle.
func (b *BindlessHeap) GetGPUHandle(index BindlessIndex) uint64 {
	return b.resourceHeap.GPUHandle(uint32(index))
}

// RegisterSampler reserves a sampler slot and copies the descriptor at
// offlineIndex of offlineSamplerHeap into it. The
// bindless sampler heap is much smaller than the resource heap (it mirrors
// the D3D12 hardware limit on shader-visible sampler heap size), so
// repeated identical samplers should be deduplicated by the sampler layer
// before reaching here.
func (b *BindlessHeap) RegisterSampler(offlineSamplerHeap *Heap, offlineIndex uint32) BindlessIndex {
	alloc := b.samplerAlloc.Allocate(1)
	if !alloc.IsValid() {
		return InvalidBindlessIndex
	}
	b.device.CopyDescriptors(b.samplerHeap.Raw(), alloc.FirstIndex(), offlineSamplerHeap.Raw(), offlineIndex, 1, gpu.HeapTypeSampler)
	return BindlessIndex(alloc.FirstIndex())
}

// UnregisterSampler frees a previously registered sampler slot.
func (b *BindlessHeap) UnregisterSampler(index BindlessIndex) {
	b.samplerAlloc.Free(Allocation{heap: b.samplerHeap, first: uint32(index), count: 1})
}

// TrackOwner records that owner (typically a *resource.Buffer or
// *resource.Texture) holds the given bindless index, so a later
// UnregisterResource(owner) can free every index it ever registered
// without the caller tracking them individually.
func (b *BindlessHeap) TrackOwner(owner interface{}, index BindlessIndex) {
	b.owners[owner] = append(b.owners[owner], index)
}

// UnregisterResource frees every resource-heap index previously tracked
// for owner via TrackOwner, and forgets the owner.
func (b *BindlessHeap) UnregisterResource(owner interface{}) {
	indices, ok := b.owners[owner]
	if !ok {
		return
	}
	for _, idx := range indices {
		b.Free(idx)
	}
	delete(b.owners, owner)
}

// Shutdown releases both backing heaps.
func (b *BindlessHeap) Shutdown() {
	b.resourceHeap.Destroy()
	b.samplerHeap.Destroy()
}
