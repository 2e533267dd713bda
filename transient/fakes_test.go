package transient

import (
	"time"

	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

// recordingCmd records every ResourceAliasingBarrier call it receives, so
// tests can assert which transitions the allocator actually emitted.
type recordingCmd struct {
	barriers []barrierCall
}

type barrierCall struct {
	before gpu.Handle
	after  gpu.Handle
}

func (c *recordingCmd) SetDescriptorHeaps(gpu.RawDescriptorHeap, gpu.RawDescriptorHeap)  {}
func (c *recordingCmd) SetGraphicsRootDescriptorTable(uint32, uint64)                    {}
func (c *recordingCmd) SetComputeRootDescriptorTable(uint32, uint64)                     {}
func (c *recordingCmd) WriteTimestamp(gpu.RawDescriptorHeap, uint32)                     {}
func (c *recordingCmd) BeginDebugEvent(string, uint32)                                   {}
func (c *recordingCmd) EndDebugEvent()                                                   {}
func (c *recordingCmd) ResourceAliasingBarrier(before, after gpu.Handle) {
	c.barriers = append(c.barriers, barrierCall{before: before, after: after})
}

// fakeFence is a manually-driven Fence: tests advance completed past a
// wait target to simulate the GPU finishing work.
type fakeFence struct {
	completed uint64
	waits     []uint64
}

func (f *fakeFence) CompletedValue() uint64 { return f.completed }
func (f *fakeFence) IsCompleted(value uint64) bool { return f.completed >= value }
func (f *fakeFence) Wait(value uint64, timeout time.Duration) (bool, error) {
	f.waits = append(f.waits, value)
	return f.completed >= value, nil
}

type fakeRawBuffer struct{ id int }

func (fakeRawBuffer) DebugName() string            { return "fake-buffer" }
func (fakeRawBuffer) GPUVirtualAddress() uint64     { return 0 }

type countingBufferDevice struct {
	created   int
	destroyed int
}

func (d *countingBufferDevice) CreateBuffer(gputype.BufferDescriptor, string) (gpu.RawBuffer, error) {
	d.created++
	return fakeRawBuffer{id: d.created}, nil
}
func (d *countingBufferDevice) DestroyBuffer(gpu.RawBuffer) { d.destroyed++ }
func (d *countingBufferDevice) CreateTexture(gputype.TextureDescriptor, string) (gpu.RawTexture, error) {
	return nil, nil
}
func (d *countingBufferDevice) DestroyTexture(gpu.RawTexture) {}
func (d *countingBufferDevice) CreateDescriptorHeap(gpu.DescriptorHeapDesc, string) (gpu.RawDescriptorHeap, error) {
	return nil, nil
}
func (d *countingBufferDevice) DestroyDescriptorHeap(gpu.RawDescriptorHeap) {}
func (d *countingBufferDevice) CreateShader([]byte, string) (gpu.RawShader, error) { return nil, nil }
func (d *countingBufferDevice) DestroyShader(gpu.RawShader)                       {}
func (d *countingBufferDevice) CreateSampler(gputype.SamplerDescriptor) (gpu.RawSampler, error) {
	return nil, nil
}
func (d *countingBufferDevice) DestroySampler(gpu.RawSampler)         {}
func (d *countingBufferDevice) CreateFence(uint64) (gpu.Fence, error) { return nil, nil }
func (d *countingBufferDevice) CreateRootSignature([]byte, string) (gpu.RawRootSignature, error) {
	return nil, nil
}
func (d *countingBufferDevice) DestroyRootSignature(gpu.RawRootSignature) {}
func (d *countingBufferDevice) CopyDescriptors(gpu.RawDescriptorHeap, uint32, gpu.RawDescriptorHeap, uint32, uint32, gpu.HeapType) {
}
func (d *countingBufferDevice) GetTimestampFrequency() (uint64, error) { return 1, nil }
