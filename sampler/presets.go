package sampler

import (
	"sync"

	"github.com/nsrhi/rhi/gpu"
	"github.com/nsrhi/rhi/gputype"
)

// Preset names the common sampler configurations every renderer reaches
// for, so call sites don't hand-roll descriptors for the same handful of
// states over and over.
type Preset int

const (
	PresetPoint Preset = iota
	PresetPointClamp
	PresetLinear
	PresetLinearClamp
	PresetAnisotropic
	PresetShadowPCF
	presetCount
)

func descriptorFor(p Preset) gputype.SamplerDescriptor {
	d := gputype.DefaultSamplerDescriptor()
	switch p {
	case PresetPoint:
		d.MagFilter, d.MinFilter, d.MipmapFilter = gputype.FilterModeNearest, gputype.FilterModeNearest, gputype.MipmapFilterModeNearest
		d.AddressModeU, d.AddressModeV, d.AddressModeW = gputype.AddressModeRepeat, gputype.AddressModeRepeat, gputype.AddressModeRepeat
	case PresetPointClamp:
		d.MagFilter, d.MinFilter, d.MipmapFilter = gputype.FilterModeNearest, gputype.FilterModeNearest, gputype.MipmapFilterModeNearest
		d.AddressModeU, d.AddressModeV, d.AddressModeW = gputype.AddressModeClampToEdge, gputype.AddressModeClampToEdge, gputype.AddressModeClampToEdge
	case PresetLinear:
		d.MagFilter, d.MinFilter, d.MipmapFilter = gputype.FilterModeLinear, gputype.FilterModeLinear, gputype.MipmapFilterModeLinear
		d.AddressModeU, d.AddressModeV, d.AddressModeW = gputype.AddressModeRepeat, gputype.AddressModeRepeat, gputype.AddressModeRepeat
	case PresetLinearClamp:
		d.MagFilter, d.MinFilter, d.MipmapFilter = gputype.FilterModeLinear, gputype.FilterModeLinear, gputype.MipmapFilterModeLinear
		d.AddressModeU, d.AddressModeV, d.AddressModeW = gputype.AddressModeClampToEdge, gputype.AddressModeClampToEdge, gputype.AddressModeClampToEdge
	case PresetAnisotropic:
		d.MagFilter, d.MinFilter, d.MipmapFilter = gputype.FilterModeLinear, gputype.FilterModeLinear, gputype.MipmapFilterModeLinear
		d.AddressModeU, d.AddressModeV, d.AddressModeW = gputype.AddressModeRepeat, gputype.AddressModeRepeat, gputype.AddressModeRepeat
		d.MaxAnisotropy = 16
	case PresetShadowPCF:
		d.MagFilter, d.MinFilter, d.MipmapFilter = gputype.FilterModeLinear, gputype.FilterModeLinear, gputype.MipmapFilterModeNearest
		d.AddressModeU, d.AddressModeV, d.AddressModeW = gputype.AddressModeClampToEdge, gputype.AddressModeClampToEdge, gputype.AddressModeClampToEdge
		d.Compare = gputype.CompareFunctionLessEqual
	}
	return d
}

// Presets lazily creates and caches the fixed set of common sampler
// states on first request, so a renderer that never uses e.g. shadow
// PCF sampling never pays for it.
type Presets struct {
	cache *Cache
	mu    sync.Mutex
	raw   [presetCount]gpu.RawSampler
	init  [presetCount]bool
}

// NewPresets creates a preset table backed by cache.
func NewPresets(cache *Cache) *Presets {
	return &Presets{cache: cache}
}

// Get returns the sampler for p, creating it on first use.
func (p *Presets) Get(preset Preset) (gpu.RawSampler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.init[preset] {
		return p.raw[preset], nil
	}
	raw, err := p.cache.GetOrCreate(descriptorFor(preset))
	if err != nil {
		return nil, err
	}
	p.raw[preset] = raw
	p.init[preset] = true
	return raw, nil
}
