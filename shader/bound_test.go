package shader

import "testing"

func TestBoundShaderStateCache_InternsIdenticalCombination(t *testing.T) {
	c := NewBoundShaderStateCache()
	vs := &Shader{Hash: Compute([]byte("vs-source")), Stage: StageVertex}
	ps := &Shader{Hash: Compute([]byte("ps-source")), Stage: StagePixel}
	stages := StageShaders{Vertex: vs, Pixel: ps}
	params := map[Stage]ParameterMap{
		StageVertex: {"ViewCB": {Slot: 0, Space: 0}},
		StagePixel:  {"AlbedoTex": {Slot: 0, Space: 1}},
	}

	a, err := c.GetOrCreate(stages, params)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.GetOrCreate(stages, params)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected identical stage combination to return the interned instance")
	}
	if c.Len() != 1 {
		t.Fatalf("expected exactly one interned state, got %d", c.Len())
	}
	if len(a.Params) != 2 {
		t.Fatalf("expected merged parameter map of size 2, got %d", len(a.Params))
	}
}

func TestBoundShaderStateCache_AcceptsMeshWithAmplification(t *testing.T) {
	c := NewBoundShaderStateCache()
	as := &Shader{Hash: Compute([]byte("as-source")), Stage: StageAmplification}
	ms := &Shader{Hash: Compute([]byte("ms-source")), Stage: StageMesh}
	stages := StageShaders{Amplification: as, Mesh: ms}

	bss, err := c.GetOrCreate(stages, nil)
	if err != nil {
		t.Fatalf("expected amplification+mesh to be a valid bound shader state: %v", err)
	}
	if bss.Stages.Amplification != as {
		t.Fatal("expected amplification shader to be preserved in the bound state")
	}
}

func TestBoundShaderStateCache_RejectsVertexAndMeshTogether(t *testing.T) {
	c := NewBoundShaderStateCache()
	stages := StageShaders{
		Vertex: &Shader{Hash: Compute([]byte("vs"))},
		Mesh:   &Shader{Hash: Compute([]byte("ms"))},
	}
	if _, err := c.GetOrCreate(stages, nil); err == nil {
		t.Fatal("expected error combining vertex and mesh shaders in one bound state")
	}
}

func TestBoundShaderStateCache_RejectsConflictingBindingSlot(t *testing.T) {
	c := NewBoundShaderStateCache()
	vs := &Shader{Hash: Compute([]byte("vs2"))}
	ps := &Shader{Hash: Compute([]byte("ps2"))}
	stages := StageShaders{Vertex: vs, Pixel: ps}
	params := map[Stage]ParameterMap{
		StageVertex: {"ViewCB": {Slot: 0, Space: 0}},
		StagePixel:  {"MaterialCB": {Slot: 0, Space: 0}}, // same slot, different name
	}
	if _, err := c.GetOrCreate(stages, params); err == nil {
		t.Fatal("expected error for two different names claiming the same binding slot")
	}
}

func TestPermutationSet_PackAndQuery(t *testing.T) {
	set := NewPermutationSet()
	normalMap, err := set.AddDimension("USE_NORMAL_MAP", 2)
	if err != nil {
		t.Fatal(err)
	}
	shadowQuality, err := set.AddDimension("SHADOW_QUALITY", 4)
	if err != nil {
		t.Fatal(err)
	}

	key := set.NewKeyBuilder().SetBool(normalMap, true).Set(shadowQuality, 3).Key()

	if !set.HasPermutation(key, normalMap, 1) {
		t.Fatal("expected USE_NORMAL_MAP bit to be set")
	}
	if !set.HasPermutation(key, shadowQuality, 3) {
		t.Fatal("expected SHADOW_QUALITY to read back as 3")
	}
	if set.HasPermutation(key, shadowQuality, 2) {
		t.Fatal("expected SHADOW_QUALITY to not also read back as 2")
	}
}
