package resource

import (
	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

// Buffer is a ref-counted GPU buffer resource.
type Buffer struct {
	Base
	raw    gpu.RawBuffer
	device gpu.Device
	desc   gputype.BufferDescriptor
	stride uint32
}

// NewBuffer wraps a backend buffer handle in a ref-counted resource that
// releases through queue when its last reference drops.
func NewBuffer(raw gpu.RawBuffer, device gpu.Device, desc gputype.BufferDescriptor, stride uint32, queue *DeferredDeleteQueue) *Buffer {
	b := &Buffer{raw: raw, device: device, desc: desc, stride: stride}
	b.Init(desc.Label, queue, b)
	return b
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Usage returns the usage flags the buffer was created with.
func (b *Buffer) Usage() gputype.BufferUsage { return b.desc.Usage }

// Stride returns the per-element stride, for buffers used as a structured
// or vertex buffer. Zero if not applicable.
func (b *Buffer) Stride() uint32 { return b.stride }

// GPUVirtualAddress returns the device address for root CBV/SRV/UAV binding.
func (b *Buffer) GPUVirtualAddress() uint64 { return b.raw.GPUVirtualAddress() }

// Raw returns the backend handle. Only valid while the buffer is alive.
func (b *Buffer) Raw() gpu.RawBuffer { return b.raw }

func (b *Buffer) releaseNow() {
	if b.raw == nil {
		return
	}
	b.device.DestroyBuffer(b.raw)
	b.raw = nil
}

// Texture is a ref-counted GPU texture resource.
type Texture struct {
	Base
	raw    gpu.RawTexture
	device gpu.Device
	desc   gputype.TextureDescriptor
}

// NewTexture wraps a backend texture handle in a ref-counted resource.
func NewTexture(raw gpu.RawTexture, device gpu.Device, desc gputype.TextureDescriptor, queue *DeferredDeleteQueue) *Texture {
	t := &Texture{raw: raw, device: device, desc: desc}
	t.Init(desc.Label, queue, t)
	return t
}

// Extent returns the texture's width/height/depth-or-layers.
func (t *Texture) Extent() gputype.Extent3D { return t.desc.Size }

// Format returns the texture's pixel format.
func (t *Texture) Format() gputype.TextureFormat { return t.desc.Format }

// MipLevelCount returns the number of mip levels.
func (t *Texture) MipLevelCount() uint32 { return t.desc.MipLevelCount }

// SampleCount returns the MSAA sample count (1 for non-multisampled).
func (t *Texture) SampleCount() uint32 { return t.desc.SampleCount }

// Raw returns the backend handle. Only valid while the texture is alive.
func (t *Texture) Raw() gpu.RawTexture { return t.raw }

func (t *Texture) releaseNow() {
	if t.raw == nil {
		return
	}
	t.device.DestroyTexture(t.raw)
	t.raw = nil
}
