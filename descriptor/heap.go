// Package descriptor implements the GPU descriptor heaps the rest of the
// RHI core allocates from: offline (CPU-only staging), online (GPU-visible
// ring, reclaimed per frame), and bindless (large, permanent) heaps, plus
// the staging step that copies an offline descriptor into the online ring.
package descriptor

import (
	"github.com/nsrhi/rhi/gpu"
)

// Handle is a resolved descriptor slot: a CPU pointer always, and a GPU
// address only when the owning heap is shader-visible.
type Handle struct {
	CPU uintptr
	GPU uint64
}

// Heap wraps a single backend descriptor heap of one HeapType. It is
// device-owned, is not reference-counted through resource.Base, and
// outlives every allocation drawn from it.
type Heap struct {
	raw           gpu.RawDescriptorHeap
	device        gpu.Device
	desc          gpu.DescriptorHeapDesc
	name          string
}

// NewHeap creates the backend heap and wraps it.
func NewHeap(device gpu.Device, desc gpu.DescriptorHeapDesc, name string) (*Heap, error) {
	raw, err := device.CreateDescriptorHeap(desc, name)
	if err != nil {
		return nil, err
	}
	return &Heap{raw: raw, device: device, desc: desc, name: name}, nil
}

// Type returns the kind of descriptor this heap stores.
func (h *Heap) Type() gpu.HeapType { return h.desc.Type }

// Count returns the total number of slots in the heap.
func (h *Heap) Count() uint32 { return h.desc.NumDescriptors }

// ShaderVisible reports whether the heap is bindable to a shader stage.
func (h *Heap) ShaderVisible() bool { return h.desc.ShaderVisible }

// CPUHandle returns the CPU handle for slot index.
func (h *Heap) CPUHandle(index uint32) uintptr { return h.raw.CPUHandle(index) }

// GPUHandle returns the GPU handle for slot index. Only meaningful when
// ShaderVisible is true.
func (h *Heap) GPUHandle(index uint32) uint64 { return h.raw.GPUHandle(index) }

// Raw returns the backend heap handle, for Device.CopyDescriptors calls.
func (h *Heap) Raw() gpu.RawDescriptorHeap { return h.raw }

// Destroy releases the backend heap. The caller must have already shut
// down every allocator drawing from this heap (allocator outlives no
// allocation, but the heap must outlive every allocator).
func (h *Heap) Destroy() {
	if h.raw == nil {
		return
	}
	h.device.DestroyDescriptorHeap(h.raw)
	h.raw = nil
}
