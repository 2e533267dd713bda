// Package sampler manages GPU sampler objects: a hash-keyed cache that
// deduplicates identical sampler descriptors, a handful of common presets,
// and a name-keyed manager for user-facing sampler slots.
package sampler

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

const maxCacheEntries = 256

// key returns a deterministic 64-bit FNV-1a hash of every field in desc
// that affects sampler state (Label is excluded: it is a debug name, not
// sampler state, so two identically-configured samplers with different
// labels must still hit the same cache entry).
func key(desc gputype.SamplerDescriptor) uint64 {
	var buf [32]byte
	buf[0] = byte(desc.AddressModeU)
	buf[1] = byte(desc.AddressModeV)
	buf[2] = byte(desc.AddressModeW)
	buf[3] = byte(desc.MagFilter)
	buf[4] = byte(desc.MinFilter)
	buf[5] = byte(desc.MipmapFilter)
	buf[6] = byte(desc.Compare)
	buf[7] = byte(desc.BorderColor)
	binary.LittleEndian.PutUint16(buf[8:10], desc.MaxAnisotropy)
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(desc.LodMinClamp))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(desc.LodMaxClamp))

	h := fnv.New64a()
	h.Write(buf[:20])
	return h.Sum64()
}

type cacheEntry struct {
	used bool
	key  uint64
	desc gputype.SamplerDescriptor
	raw  gpu.RawSampler
}

// Cache deduplicates sampler creation by descriptor content. It is a
// fixed-capacity, linearly-probed open-addressing table: sampler state
// spaces used in practice (a few dozen distinct configurations per
// project) stay far below the 256-entry ceiling.
type Cache struct {
	device  gpu.Device
	entries [maxCacheEntries]cacheEntry
	hits    uint64
	misses  uint64
}

// NewCache creates an empty sampler cache backed by device.
func NewCache(device gpu.Device) *Cache {
	return &Cache{device: device}
}

// GetOrCreate returns the cached sampler for desc, creating and caching
// it on first use. Returns an error only if the backend fails to create
// a genuinely new sampler; a full cache falls back to creating an
// uncached sampler rather than failing (callers that churn through more
// than 256 distinct sampler states are expected to be rare and are not
// worth penalizing the common path for).
func (c *Cache) GetOrCreate(desc gputype.SamplerDescriptor) (gpu.RawSampler, error) {
	k := key(desc)
	state := desc
	state.Label = ""
	start := int(k % maxCacheEntries)
	for i := 0; i < maxCacheEntries; i++ {
		idx := (start + i) % maxCacheEntries
		e := &c.entries[idx]
		if !e.used {
			raw, err := c.device.CreateSampler(desc)
			if err != nil {
				return nil, err
			}
			*e = cacheEntry{used: true, key: k, desc: state, raw: raw}
			c.misses++
			return raw, nil
		}
		if e.key == k && e.desc == state {
			c.hits++
			return e.raw, nil
		}
	}
	// Table full: degrade gracefully instead of failing the caller.
	c.misses++
	return c.device.CreateSampler(desc)
}

// Stats returns the running hit/miss counters.
func (c *Cache) Stats() (hits, misses uint64) { return c.hits, c.misses }

// HitRate returns hits / (hits + misses), or 0 if nothing has been
// requested yet.
func (c *Cache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
