package descriptor

import (
	"testing"

	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

// fakeDevice satisfies gpu.Device just enough to create descriptor heaps.
type fakeDevice struct{}

type fakeRawHeap struct{ n uint32 }

func (fakeRawHeap) DebugName() string                { return "fake-heap" }
func (h fakeRawHeap) CPUHandle(i uint32) uintptr      { return uintptr(i) * 8 }
func (h fakeRawHeap) GPUHandle(i uint32) uint64       { return uint64(i) * 8 }

func (fakeDevice) CreateBuffer(gputype.BufferDescriptor, string) (gpu.RawBuffer, error) {
	return nil, nil
}
func (fakeDevice) DestroyBuffer(gpu.RawBuffer) {}
func (fakeDevice) CreateTexture(gputype.TextureDescriptor, string) (gpu.RawTexture, error) {
	return nil, nil
}
func (fakeDevice) DestroyTexture(gpu.RawTexture) {}
func (fakeDevice) CreateDescriptorHeap(desc gpu.DescriptorHeapDesc, name string) (gpu.RawDescriptorHeap, error) {
	return fakeRawHeap{n: desc.NumDescriptors}, nil
}
func (fakeDevice) DestroyDescriptorHeap(gpu.RawDescriptorHeap) {}
func (fakeDevice) CreateShader([]byte, string) (gpu.RawShader, error)       { return nil, nil }
func (fakeDevice) DestroyShader(gpu.RawShader)                             {}
func (fakeDevice) CreateSampler(gputype.SamplerDescriptor) (gpu.RawSampler, error) {
	return nil, nil
}
func (fakeDevice) DestroySampler(gpu.RawSampler) {}
func (fakeDevice) CreateFence(uint64) (gpu.Fence, error) { return nil, nil }
func (fakeDevice) CreateRootSignature([]byte, string) (gpu.RawRootSignature, error) {
	return nil, nil
}
func (fakeDevice) DestroyRootSignature(gpu.RawRootSignature) {}
func (fakeDevice) CopyDescriptors(gpu.RawDescriptorHeap, uint32, gpu.RawDescriptorHeap, uint32, uint32, gpu.HeapType) {
}
func (fakeDevice) GetTimestampFrequency() (uint64, error) { return 1_000_000_000, nil }

func TestOnlineRing_WrapAndReclaim(t *testing.T) {
	ring, err := NewOnlineRing(fakeDevice{}, gpu.HeapTypeCbvSrvUav, OnlineRingConfig{Count: 8, BufferedFrames: 2}, "online")
	if err != nil {
		t.Fatalf("NewOnlineRing: %v", err)
	}

	ring.BeginFrame(1)
	a1 := ring.Allocate(5)
	if !a1.IsValid() || a1.FirstIndex() != 0 {
		t.Fatalf("frame1 allocation unexpected: %+v", a1)
	}
	if ring.Head() != 5 {
		t.Fatalf("expected head=5 after frame1, got %d", ring.Head())
	}
	ring.EndFrame()

	ring.BeginFrame(2)
	a2 := ring.Allocate(4)
	if !a2.IsValid() || a2.FirstIndex() != 0 {
		t.Fatalf("frame2 allocation expected to wrap to 0, got %+v", a2)
	}
	if ring.Head() != 4 {
		t.Fatalf("expected head=4 after frame2 wrap, got %d", ring.Head())
	}
	ring.EndFrame()

	ring.BeginFrame(3)
	if ring.Tail() != 5 {
		t.Fatalf("expected tail=5 after frame1 reclaimed at frame3, got %d", ring.Tail())
	}
}

func TestOnlineRing_AllocateLargerThanHeapIsInvalid(t *testing.T) {
	ring, err := NewOnlineRing(fakeDevice{}, gpu.HeapTypeCbvSrvUav, OnlineRingConfig{Count: 8, BufferedFrames: 2}, "online")
	if err != nil {
		t.Fatalf("NewOnlineRing: %v", err)
	}
	if ring.Allocate(9).IsValid() {
		t.Fatal("expected allocation larger than heap to be invalid")
	}
}

// TestOnlineRing_WrapCollidesWithUnreclaimedTailFails reproduces a wrap
// that would overrun descriptors from a frame still in flight: frame2's
// [6,8) range has not been reclaimed yet (bufferedFrames=2), so wrapping
// to write 7 slots starting at 0 would stomp index 6 before the GPU is
// known to be done reading it.
func TestOnlineRing_WrapCollidesWithUnreclaimedTailFails(t *testing.T) {
	ring, err := NewOnlineRing(fakeDevice{}, gpu.HeapTypeCbvSrvUav, OnlineRingConfig{Count: 8, BufferedFrames: 2}, "online")
	if err != nil {
		t.Fatalf("NewOnlineRing: %v", err)
	}

	ring.BeginFrame(1)
	if !ring.Allocate(6).IsValid() {
		t.Fatal("frame1 allocation of 6 should fit in an 8-slot ring")
	}
	ring.EndFrame()

	ring.BeginFrame(2)
	if !ring.Allocate(2).IsValid() {
		t.Fatal("frame2 allocation of 2 should exactly fill the ring to head=8")
	}
	ring.EndFrame()

	ring.BeginFrame(3)
	if ring.Tail() != 6 {
		t.Fatalf("expected frame1 to be reclaimed (tail=6) at frame3, got %d", ring.Tail())
	}

	if ring.Allocate(7).IsValid() {
		t.Fatal("expected wrap-around allocation to fail: it would overrun frame2's unreclaimed [6,8) range")
	}

	// A smaller wrap that stays within the reclaimed space still succeeds.
	if !ring.Allocate(1).IsValid() {
		t.Fatal("expected a 1-slot wrap allocation to succeed within reclaimed space")
	}
}
