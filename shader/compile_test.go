package shader

import (
	"errors"
	"testing"
)

func TestCompileOptions_HashBytesDistinguishesOptimizationAndFlags(t *testing.T) {
	base := CompileOptions{EntryPoint: "main", Stage: StagePixel, Model: "6_6"}
	withOpt := base
	withOpt.Optimize = OptimizationL3
	withFlags := base
	withFlags.WarningsAsErrors = true
	withFlags.RowMajor = true
	withFlags.Enable16BitTypes = true
	withIncludes := base
	withIncludes.IncludePaths = []string{"shaders/common"}

	variants := []CompileOptions{base, withOpt, withFlags, withIncludes}
	seen := make(map[Hash]CompileOptions)
	for _, v := range variants {
		h := optionsHash(v)
		if prior, ok := seen[h]; ok {
			t.Fatalf("expected distinct options hashes, but %+v and %+v collided", prior, v)
		}
		seen[h] = v
	}
}

// fakeCompiler returns a fixed CompileResult, used to exercise Manager.Get
// against the structured compile model.
type fakeCompiler struct {
	result CompileResult
	err    error
}

func (c fakeCompiler) Compile(source []byte, opts CompileOptions) (CompileResult, error) {
	return c.result, c.err
}

func TestManager_SurfacesStructuredCompileErrors(t *testing.T) {
	loader := func(path string) ([]byte, error) { return []byte("float4 main() : SV_Target { return 0; }"), nil }
	compiler := fakeCompiler{
		result: CompileResult{
			Success: false,
			Errors: []CompileError{
				{Message: "undeclared identifier 'foo'", File: "shader.hlsl", Line: 4, Column: 12, IsWarning: false},
				{Message: "implicit truncation", File: "shader.hlsl", Line: 7, Column: 3, IsWarning: true},
			},
		},
		err: errors.New("hlsl compile failed"),
	}
	m := NewManager(loader, compiler)

	_, err := m.Get("shader.hlsl", CompileOptions{Stage: StagePixel, Model: "6_6"})
	if err == nil {
		t.Fatal("expected compile failure to propagate as an error")
	}
	if m.Len() != 0 {
		t.Fatalf("expected failed compile to leave nothing cached, got %d entries", m.Len())
	}
}

func TestManager_CachesSuccessfulStructuredResult(t *testing.T) {
	loader := func(path string) ([]byte, error) { return []byte("source"), nil }
	compiler := fakeCompiler{
		result: CompileResult{
			Success:       true,
			Bytecode:      []byte{1, 2, 3},
			Hash:          Compute([]byte{1, 2, 3}),
			CompileTimeMs: 1.5,
		},
	}
	m := NewManager(loader, compiler)

	s, err := m.Get("shader.hlsl", CompileOptions{Stage: StagePixel, Model: "6_6"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(s.Raw) != 3 {
		t.Fatalf("expected cached bytecode of length 3, got %d", len(s.Raw))
	}
}
