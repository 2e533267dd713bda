package diag

import (
	"testing"
	"time"

	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

type fakeTimerDevice struct{ freq uint64 }

func (d fakeTimerDevice) CreateBuffer(gputype.BufferDescriptor, string) (gpu.RawBuffer, error) {
	return nil, nil
}
func (d fakeTimerDevice) DestroyBuffer(gpu.RawBuffer) {}
func (d fakeTimerDevice) CreateTexture(gputype.TextureDescriptor, string) (gpu.RawTexture, error) {
	return nil, nil
}
func (d fakeTimerDevice) DestroyTexture(gpu.RawTexture) {}
func (d fakeTimerDevice) CreateDescriptorHeap(gpu.DescriptorHeapDesc, string) (gpu.RawDescriptorHeap, error) {
	return nil, nil
}
func (d fakeTimerDevice) DestroyDescriptorHeap(gpu.RawDescriptorHeap)               {}
func (d fakeTimerDevice) CreateShader([]byte, string) (gpu.RawShader, error)        { return nil, nil }
func (d fakeTimerDevice) DestroyShader(gpu.RawShader)                              {}
func (d fakeTimerDevice) CreateSampler(gputype.SamplerDescriptor) (gpu.RawSampler, error) {
	return nil, nil
}
func (d fakeTimerDevice) DestroySampler(gpu.RawSampler)         {}
func (d fakeTimerDevice) CreateFence(uint64) (gpu.Fence, error) { return nil, nil }
func (d fakeTimerDevice) CreateRootSignature([]byte, string) (gpu.RawRootSignature, error) {
	return nil, nil
}
func (d fakeTimerDevice) DestroyRootSignature(gpu.RawRootSignature) {}
func (d fakeTimerDevice) CopyDescriptors(gpu.RawDescriptorHeap, uint32, gpu.RawDescriptorHeap, uint32, uint32, gpu.HeapType) {
}
func (d fakeTimerDevice) GetTimestampFrequency() (uint64, error) { return d.freq, nil }

type fakeCmdContext struct{ writes []uint32 }

func (c *fakeCmdContext) SetDescriptorHeaps(gpu.RawDescriptorHeap, gpu.RawDescriptorHeap) {}
func (c *fakeCmdContext) SetGraphicsRootDescriptorTable(uint32, uint64)                   {}
func (c *fakeCmdContext) SetComputeRootDescriptorTable(uint32, uint64)                    {}
func (c *fakeCmdContext) WriteTimestamp(_ gpu.RawDescriptorHeap, index uint32) {
	c.writes = append(c.writes, index)
}
func (c *fakeCmdContext) BeginDebugEvent(string, uint32)         {}
func (c *fakeCmdContext) EndDebugEvent()                         {}
func (c *fakeCmdContext) ResourceAliasingBarrier(gpu.Handle, gpu.Handle) {}

type fakeFence struct{ completed uint64 }

func (f *fakeFence) CompletedValue() uint64 { return f.completed }
func (f *fakeFence) IsCompleted(value uint64) bool { return f.completed >= value }
func (f *fakeFence) Wait(value uint64, timeout time.Duration) (bool, error) {
	return f.IsCompleted(value), nil
}

func TestGPUTimer_BeginEndResolve(t *testing.T) {
	timer, err := NewGPUTimer(fakeTimerDevice{freq: 1_000_000_000}, 16)
	if err != nil {
		t.Fatal(err)
	}
	cmd := &fakeCmdContext{}
	fence := &fakeFence{}

	timer.BeginFrame(1)
	qb, err := timer.BeginTimer(cmd, "ShadowPass")
	if err != nil {
		t.Fatal(err)
	}
	timer.EndTimer(cmd, qb)
	timer.EndFrame(fence, 10)

	if timer.AreResultsReady(1) {
		t.Fatal("expected results not ready before fence signals")
	}
	fence.completed = 10
	if !timer.AreResultsReady(1) {
		t.Fatal("expected results ready once fence signals")
	}

	timer.SetRawTimestamps(map[uint32]int64{qb.BeginIndex: 1000, qb.EndIndex: 1500})
	results, err := timer.GetTimerResult(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "ShadowPass" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Duration != 500*time.Nanosecond {
		t.Fatalf("expected 500ns duration, got %v", results[0].Duration)
	}
}

func TestBeginEvent_ClosesOnCall(t *testing.T) {
	cmd := &fakeCmdContext{}
	close := BeginEvent(cmd, "Test", 0xFFFFFFFF)
	close()
}
