package descriptor

import (
	"testing"

	"github.com/nsrhi/rhi/gpu"
)

// recordingDevice wraps fakeDevice and records the dst heap of every
// CopyDescriptors call, so tests can assert which ring a Stage/batch call
// actually wrote into.
type recordingDevice struct {
	fakeDevice
	dstHeaps []gpu.RawDescriptorHeap
}

func (d *recordingDevice) CopyDescriptors(dst gpu.RawDescriptorHeap, dstStart uint32, src gpu.RawDescriptorHeap, srcStart, count uint32, t gpu.HeapType) {
	d.dstHeaps = append(d.dstHeaps, dst)
}

func newTestRings(t *testing.T, dev gpu.Device) (*OnlineRing, *OnlineRing) {
	cbvSrvUav, err := NewOnlineRing(dev, gpu.HeapTypeCbvSrvUav, OnlineRingConfig{Count: 8, BufferedFrames: 2}, "cbv-srv-uav")
	if err != nil {
		t.Fatalf("NewOnlineRing(cbvSrvUav): %v", err)
	}
	sampler, err := NewOnlineRing(dev, gpu.HeapTypeSampler, OnlineRingConfig{Count: 8, BufferedFrames: 2}, "sampler")
	if err != nil {
		t.Fatalf("NewOnlineRing(sampler): %v", err)
	}
	return cbvSrvUav, sampler
}

func TestStager_StageRoutesToMatchingRing(t *testing.T) {
	dev := &recordingDevice{}
	cbvSrvUav, sampler := newTestRings(t, dev)
	offline, err := NewHeap(dev, gpu.DescriptorHeapDesc{Type: gpu.HeapTypeCbvSrvUav, NumDescriptors: 4}, "offline")
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}

	s := NewStager(dev, cbvSrvUav, sampler)

	if _, ok := s.Stage(offline, 0, gpu.HeapTypeCbvSrvUav); !ok {
		t.Fatal("expected Stage(CbvSrvUav) to succeed")
	}
	if _, ok := s.Stage(offline, 0, gpu.HeapTypeSampler); !ok {
		t.Fatal("expected Stage(Sampler) to succeed")
	}

	if len(dev.dstHeaps) != 2 {
		t.Fatalf("expected 2 CopyDescriptors calls, got %d", len(dev.dstHeaps))
	}
	if dev.dstHeaps[0] != cbvSrvUav.Heap().Raw() {
		t.Fatal("expected first Stage call to copy into the CBV/SRV/UAV ring's heap")
	}
	if dev.dstHeaps[1] != sampler.Heap().Raw() {
		t.Fatal("expected second Stage call to copy into the sampler ring's heap")
	}
	if cbvSrvUav.Head() != 1 {
		t.Fatalf("expected cbvSrvUav ring head to advance by 1, got %d", cbvSrvUav.Head())
	}
	if sampler.Head() != 1 {
		t.Fatalf("expected sampler ring head to advance by 1, got %d", sampler.Head())
	}
}

func TestStager_BatchAlwaysUsesCbvSrvUavRing(t *testing.T) {
	dev := &recordingDevice{}
	cbvSrvUav, sampler := newTestRings(t, dev)
	offline, err := NewHeap(dev, gpu.DescriptorHeapDesc{Type: gpu.HeapTypeSampler, NumDescriptors: 4}, "offline-sampler")
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}

	s := NewStager(dev, cbvSrvUav, sampler)

	// Even though the batch carries sampler-typed descriptors, the
	// contiguous range it reserves must come from the CBV/SRV/UAV ring
	// per the staging protocol.
	if !s.BeginBatch(2, gpu.HeapTypeSampler) {
		t.Fatal("expected BeginBatch to succeed")
	}
	if _, ok := s.AddToBatch(offline, 0); !ok {
		t.Fatal("expected first AddToBatch to succeed")
	}
	if _, ok := s.AddToBatch(offline, 1); !ok {
		t.Fatal("expected second AddToBatch to succeed")
	}
	s.EndBatch()

	if cbvSrvUav.Head() != 2 {
		t.Fatalf("expected batch range to come from the CBV/SRV/UAV ring, got head=%d", cbvSrvUav.Head())
	}
	if sampler.Head() != 0 {
		t.Fatalf("expected sampler ring to be untouched by batch staging, got head=%d", sampler.Head())
	}
	for _, h := range dev.dstHeaps {
		if h != cbvSrvUav.Heap().Raw() {
			t.Fatal("expected every AddToBatch copy to target the CBV/SRV/UAV ring's heap")
		}
	}
}
