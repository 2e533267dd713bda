package shader

import (
	"fmt"
	"sync"
)

// BindingPoint is where in the root signature a named shader parameter
// lives.
type BindingPoint struct {
	Slot  uint32
	Space uint32
}

// ParameterMap maps a shader-visible parameter name (a cbuffer, texture,
// or sampler variable name) to its root-signature binding point.
type ParameterMap map[string]BindingPoint

// StageShaders names the compiled shader for each stage of one bound
// pipeline. Exactly one of (Vertex, Mesh) must be set: the vertex and
// mesh pipelines are mutually exclusive rasterization front ends, and a
// BoundShaderState models one complete pipeline, not both at once.
type StageShaders struct {
	Vertex        *Shader
	Hull          *Shader
	Domain        *Shader
	Geometry      *Shader
	Pixel         *Shader
	Amplification *Shader
	Mesh          *Shader
}

func (s StageShaders) each() [stageCount]*Shader {
	return [stageCount]*Shader{
		StageVertex:        s.Vertex,
		StageHull:          s.Hull,
		StageDomain:        s.Domain,
		StageGeometry:      s.Geometry,
		StagePixel:         s.Pixel,
		StageAmplification: s.Amplification,
		StageMesh:          s.Mesh,
	}
}

// boundKey is the tuple identity of one StageShaders combination: each
// stage's shader hash is XORed into one half (high or low 64 bits)
// depending on the stage, and the whole thing is reduced through one
// more FNV-1a pass so the key does not simply mirror any single stage's
// hash.
type boundKey [16]byte

func computeBoundKey(s StageShaders) boundKey {
	var lo, hi uint64
	for stage, sh := range s.each() {
		if sh == nil {
			continue
		}
		h := sh.Hash
		shLo := uint64(0)
		shHi := uint64(0)
		for i := 0; i < 8; i++ {
			shLo |= uint64(h[i]) << (8 * i)
			shHi |= uint64(h[8+i]) << (8 * i)
		}
		if stage%2 == 0 {
			lo ^= shLo
			hi ^= shHi
		} else {
			lo ^= shHi
			hi ^= shLo
		}
	}
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(lo >> (8 * i))
		buf[8+i] = byte(hi >> (8 * i))
	}
	reduced := Compute(buf[:])
	return boundKey(reduced)
}

// BoundShaderState is a validated, interned combination of per-stage
// shaders sharing one merged parameter map.
type BoundShaderState struct {
	Stages    StageShaders
	Params    ParameterMap
	key       boundKey
}

// buildBoundShaderState checks the mutual-exclusivity and duplicate-binding
// invariants for a StageShaders + per-stage parameter map set.
func buildBoundShaderState(stages StageShaders, perStageParams map[Stage]ParameterMap) (*BoundShaderState, error) {
	if stages.Vertex != nil && stages.Mesh != nil {
		return nil, fmt.Errorf("shader: a bound shader state cannot use both a vertex and a mesh shader")
	}
	if stages.Vertex == nil && stages.Mesh == nil {
		return nil, fmt.Errorf("shader: a bound shader state needs a vertex or mesh entry stage")
	}

	merged := make(ParameterMap)
	occupied := make(map[BindingPoint]string)
	for stage, params := range perStageParams {
		if stageShader(stages, stage) == nil {
			continue
		}
		for name, bp := range params {
			if owner, ok := occupied[bp]; ok && owner != name {
				return nil, fmt.Errorf("shader: binding slot %d space %d claimed by both %q and %q", bp.Slot, bp.Space, owner, name)
			}
			if existing, ok := merged[name]; ok && existing != bp {
				return nil, fmt.Errorf("shader: parameter %q bound inconsistently across stages (%+v vs %+v)", name, existing, bp)
			}
			merged[name] = bp
			occupied[bp] = name
		}
	}

	return &BoundShaderState{
		Stages: stages,
		Params: merged,
		key:    computeBoundKey(stages),
	}, nil
}

func stageShader(s StageShaders, stage Stage) *Shader {
	arr := s.each()
	return arr[stage]
}

// BoundShaderStateCache interns StageShaders combinations: requesting
// the same combination twice returns the same *BoundShaderState without
// rebuilding or revalidating the parameter map.
//
// BoundShaderStateCache is safe for concurrent use.
type BoundShaderStateCache struct {
	mu    sync.Mutex
	byKey map[boundKey]*BoundShaderState
}

// NewBoundShaderStateCache creates an empty cache.
func NewBoundShaderStateCache() *BoundShaderStateCache {
	return &BoundShaderStateCache{byKey: make(map[boundKey]*BoundShaderState)}
}

// GetOrCreate returns the interned BoundShaderState for stages, building
// and validating it (via perStageParams, the per-stage parameter maps
// reflection produced for each shader) on first request.
func (c *BoundShaderStateCache) GetOrCreate(stages StageShaders, perStageParams map[Stage]ParameterMap) (*BoundShaderState, error) {
	key := computeBoundKey(stages)
	c.mu.Lock()
	defer c.mu.Unlock()
	if bss, ok := c.byKey[key]; ok {
		return bss, nil
	}
	bss, err := buildBoundShaderState(stages, perStageParams)
	if err != nil {
		return nil, err
	}
	c.byKey[key] = bss
	return bss, nil
}

// Len returns the number of distinct interned states.
func (c *BoundShaderStateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}
