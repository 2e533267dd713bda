// Package gpu defines the narrow, in-process contracts the RHI core
// expects a concrete GPU backend to fulfil. Nothing in this package talks
// to a GPU directly — it exists so the rest of the core can be written,
// tested, and reasoned about without linking against a backend.
//
// A D3D12-class backend (or a test double) implements Device and
// CommandContext; the core drives descriptor allocation, shader caching,
// transient aliasing, and diagnostics on top of those two interfaces plus
// Fence.
package gpu

import (
	"time"

	"github.com/nsrhi/rhi/gputype"
)

// Handle is the minimal shape every backend-owned GPU object exposes.
// Concrete handles (raw resource pointers, command-list wrappers, ...) are
// backend-defined; the core never type-switches on them except through the
// narrow accessors declared on Device/CommandContext.
type Handle interface {
	// DebugName returns the name the object was created with, for logging.
	DebugName() string
}

// RawBuffer is the backend's opaque GPU buffer handle.
type RawBuffer interface {
	Handle
	// GPUVirtualAddress returns the device address usable for root CBV/SRV/UAV
	// binding. Stable for the lifetime of the buffer.
	GPUVirtualAddress() uint64
}

// RawTexture is the backend's opaque GPU texture handle.
type RawTexture interface {
	Handle
}

// RawDescriptorHeap is the backend's opaque descriptor heap allocation.
type RawDescriptorHeap interface {
	Handle
	// CPUHandle returns the CPU-visible base handle of slot index.
	CPUHandle(index uint32) uintptr
	// GPUHandle returns the GPU-visible base handle of slot index.
	// Only valid if the heap was created shader-visible.
	GPUHandle(index uint32) uint64
}

// RawShader is the backend's compiled shader bytecode object.
type RawShader interface {
	Handle
}

// RawSampler is the backend's concrete sampler object.
type RawSampler interface {
	Handle
}

// RawRootSignature is the backend's compiled root signature object.
type RawRootSignature interface {
	Handle
}

// Fence is a monotonic GPU-progress counter. IsCompleted must be monotonic
// in value: once true for a given value it never becomes false again.
type Fence interface {
	// CompletedValue returns the highest value the GPU has signalled.
	CompletedValue() uint64
	// IsCompleted reports whether the GPU has signalled at least value.
	IsCompleted(value uint64) bool
	// Wait blocks until the fence reaches value or timeout elapses.
	// A negative timeout waits indefinitely. Returns false on timeout.
	Wait(value uint64, timeout time.Duration) (bool, error)
}

// DescriptorHeapDesc describes a raw descriptor heap creation request.
type DescriptorHeapDesc struct {
	Type          HeapType
	NumDescriptors uint32
	ShaderVisible bool
}

// HeapType identifies the kind of descriptors a heap stores.
type HeapType uint8

const (
	// HeapTypeCbvSrvUav stores constant-buffer, shader-resource, and
	// unordered-access views.
	HeapTypeCbvSrvUav HeapType = iota
	// HeapTypeSampler stores sampler descriptors.
	HeapTypeSampler
	// HeapTypeRTV stores render-target-view descriptors (always CPU-only).
	HeapTypeRTV
	// HeapTypeDSV stores depth-stencil-view descriptors (always CPU-only).
	HeapTypeDSV
)

// String returns a short diagnostic name for the heap type.
func (t HeapType) String() string {
	switch t {
	case HeapTypeCbvSrvUav:
		return "CbvSrvUav"
	case HeapTypeSampler:
		return "Sampler"
	case HeapTypeRTV:
		return "RTV"
	case HeapTypeDSV:
		return "DSV"
	default:
		return "Unknown"
	}
}

// Device is the factory every GPU resource in the core is ultimately
// created through. Implementations are provided by a concrete backend.
type Device interface {
	CreateBuffer(desc gputype.BufferDescriptor, name string) (RawBuffer, error)
	DestroyBuffer(RawBuffer)
	CreateTexture(desc gputype.TextureDescriptor, name string) (RawTexture, error)
	DestroyTexture(RawTexture)
	CreateDescriptorHeap(desc DescriptorHeapDesc, name string) (RawDescriptorHeap, error)
	DestroyDescriptorHeap(RawDescriptorHeap)
	CreateShader(bytecode []byte, name string) (RawShader, error)
	DestroyShader(RawShader)
	CreateSampler(desc gputype.SamplerDescriptor) (RawSampler, error)
	DestroySampler(RawSampler)
	CreateFence(initial uint64) (Fence, error)
	CreateRootSignature(blob []byte, name string) (RawRootSignature, error)
	DestroyRootSignature(RawRootSignature)

	// CopyDescriptors copies count descriptors of the given type from src
	// into dst, starting at the respective offsets.
	CopyDescriptors(dst RawDescriptorHeap, dstOffset uint32, src RawDescriptorHeap, srcOffset uint32, count uint32, t HeapType)

	// GetTimestampFrequency returns GPU timestamp ticks per second for the
	// queue the core's timers are recorded on.
	GetTimestampFrequency() (uint64, error)
}

// CommandContext is the recording interface the core drives for descriptor
// binding, debug events, and timestamp writes. One CommandContext belongs
// to exactly one recording thread; nothing on it is safe to share.
type CommandContext interface {
	SetDescriptorHeaps(cbvSrvUav, sampler RawDescriptorHeap)
	SetGraphicsRootDescriptorTable(rootParamIndex uint32, gpuHandle uint64)
	SetComputeRootDescriptorTable(rootParamIndex uint32, gpuHandle uint64)

	WriteTimestamp(heap RawDescriptorHeap, index uint32)

	BeginDebugEvent(name string, rgba uint32)
	EndDebugEvent()

	// ResourceAliasingBarrier signals that the memory backing `before` is
	// about to be reused by `after`; a nil `before` means "first occupant".
	ResourceAliasingBarrier(before, after Handle)
}

// DeviceLostReason classifies why the backend reported device loss.
type DeviceLostReason uint8

const (
	DeviceLostReasonUnknown DeviceLostReason = iota
	DeviceLostReasonTimeout
	DeviceLostReasonPageFault
	DeviceLostReasonDriverError
	DeviceLostReasonOutOfMemory
	DeviceLostReasonInvalidOperation
)

// CrashInfo is handed to a DeviceLostCallback after a GPU fault, carrying
// whatever forensic data the core could recover from breadcrumbs and
// timestamp queries.
type CrashInfo struct {
	Reason               DeviceLostReason
	Message              string
	LastBreadcrumbID     uint32
	LastBreadcrumbMessage string
	FaultAddress         uint64
	AdditionalData       map[string]string
}

// DeviceLostCallback is invoked at most once per device-loss event.
type DeviceLostCallback func(info CrashInfo)
