package descriptor

import "github.com/nsrhi/rhi/gpu"

// Stager copies offline (CPU-only) descriptors into the shader-visible
// online rings, either one at a time or as a batch that reserves a single
// contiguous range up front.
//
// Stager holds one ring per online heap type: CBV/SRV/UAV and Sampler.
// Stage routes to whichever ring matches its HeapType argument; batch
// staging always reserves its contiguous range from the CBV/SRV/UAV ring,
// since a descriptor table's range (the thing batch staging exists for)
// is never a run of samplers.
//
// Stager is single-threaded, matching OnlineRing.
type Stager struct {
	device        gpu.Device
	cbvSrvUavRing *OnlineRing
	samplerRing   *OnlineRing

	batch     Allocation
	batchNext uint32
	batchType gpu.HeapType
	inBatch   bool
}

// NewStager creates a stager that copies into cbvSrvUavRing and
// samplerRing using device.
func NewStager(device gpu.Device, cbvSrvUavRing, samplerRing *OnlineRing) *Stager {
	return &Stager{device: device, cbvSrvUavRing: cbvSrvUavRing, samplerRing: samplerRing}
}

// ring returns the online ring backing heap type t.
func (s *Stager) ring(t gpu.HeapType) *OnlineRing {
	if t == gpu.HeapTypeSampler {
		return s.samplerRing
	}
	return s.cbvSrvUavRing
}

// Stage copies a single offline descriptor at offlineIndex (within
// offlineHeap) into a freshly allocated online slot and returns the
// online handle. Intended for the common case of binding one CBV/SRV/UAV
// or sampler per draw call.
func (s *Stager) Stage(offlineHeap *Heap, offlineIndex uint32, t gpu.HeapType) (Handle, bool) {
	ring := s.ring(t)
	alloc := ring.Allocate(1)
	if !alloc.IsValid() {
		return Handle{}, false
	}
	s.device.CopyDescriptors(ring.Heap().Raw(), alloc.FirstIndex(), offlineHeap.Raw(), offlineIndex, 1, t)
	return alloc.Handle(0), true
}

// BeginBatch reserves count contiguous online slots for a sequence of
// AddToBatch calls, e.g. staging an entire descriptor table in one shot.
// The range always comes from the CBV/SRV/UAV ring; t only selects the
// descriptor type AddToBatch copies. Returns false if the ring has no
// contiguous room for count slots.
func (s *Stager) BeginBatch(count uint32, t gpu.HeapType) bool {
	alloc := s.cbvSrvUavRing.Allocate(count)
	if !alloc.IsValid() {
		return false
	}
	s.batch = alloc
	s.batchNext = 0
	s.batchType = t
	s.inBatch = true
	return true
}

// AddToBatch copies one offline descriptor into the next slot of the
// in-progress batch and returns its online handle. Must be called exactly
// Allocation.Count() times between BeginBatch and EndBatch.
func (s *Stager) AddToBatch(offlineHeap *Heap, offlineIndex uint32) (Handle, bool) {
	if !s.inBatch || s.batchNext >= s.batch.Count() {
		return Handle{}, false
	}
	dst := s.batch.FirstIndex() + s.batchNext
	s.device.CopyDescriptors(s.cbvSrvUavRing.Heap().Raw(), dst, offlineHeap.Raw(), offlineIndex, 1, s.batchType)
	h := s.batch.Handle(s.batchNext)
	s.batchNext++
	return h, true
}

// EndBatch returns the base handle of the reserved range (useful for
// descriptor-table binding, which only needs the first GPU handle) and
// closes out the batch.
func (s *Stager) EndBatch() Handle {
	base := s.batch.Handle(0)
	s.inBatch = false
	s.batch = Allocation{}
	s.batchNext = 0
	return base
}
