package shader

// Define is a single preprocessor define passed to the shader compiler.
type Define struct {
	Name  string
	Value string
}

// OptimizationLevel selects how aggressively the compiler optimizes
// generated bytecode.
type OptimizationLevel uint8

const (
	OptimizationNone OptimizationLevel = iota
	OptimizationL1
	OptimizationL2
	OptimizationL3
)

// CompileOptions controls how source is translated into bytecode.
type CompileOptions struct {
	EntryPoint   string
	Stage        Stage
	Model        ShaderModel
	Defines      []Define
	IncludePaths []string

	Debug            bool
	Optimize         OptimizationLevel
	WarningsAsErrors bool
	RowMajor         bool
	Strict           bool
	IEEEStrictness   bool
	Enable16BitTypes bool
}

// hashBytes folds CompileOptions into a stable byte sequence for hashing
// alongside the source. Order matters for Defines and IncludePaths,
// matching the compiler convention that ordering can affect macro
// expansion and which header a bare #include resolves against.
func (o CompileOptions) hashBytes() []byte {
	buf := []byte(o.EntryPoint)
	buf = append(buf, byte(o.Stage))
	buf = append(buf, []byte(o.Model)...)
	for _, d := range o.Defines {
		buf = append(buf, []byte(d.Name)...)
		buf = append(buf, '=')
		buf = append(buf, []byte(d.Value)...)
		buf = append(buf, ';')
	}
	for _, p := range o.IncludePaths {
		buf = append(buf, []byte(p)...)
		buf = append(buf, ';')
	}
	if o.Debug {
		buf = append(buf, 'D')
	}
	buf = append(buf, byte('0'+o.Optimize))
	flags := []struct {
		set bool
		tag byte
	}{
		{o.WarningsAsErrors, 'W'},
		{o.RowMajor, 'R'},
		{o.Strict, 'S'},
		{o.IEEEStrictness, 'I'},
		{o.Enable16BitTypes, 'N'},
	}
	for _, f := range flags {
		if f.set {
			buf = append(buf, f.tag)
		}
	}
	return buf
}

// CompileError is one compiler diagnostic, structured so callers can
// surface it in an IDE-style error list rather than just logging text.
type CompileError struct {
	Message   string
	File      string
	Line      int
	Column    int
	IsWarning bool
}

// CompileResult is the output of translating source into bytecode.
type CompileResult struct {
	Success       bool
	Bytecode      []byte
	Hash          Hash
	Errors        []CompileError
	CompileTimeMs float64
}

// Compiler translates shader source into bytecode. The RHI core does not
// implement a compiler itself (that belongs to a backend, e.g. an
// FXC/DXC wrapper); it only defines the contract so the shader cache can
// invoke whatever compiler the embedding application wires in.
type Compiler interface {
	Compile(source []byte, opts CompileOptions) (CompileResult, error)
}

// Shader is a single compiled shader: its bytecode identity, the stage
// and options it was built for, and the compiled bytecode.
type Shader struct {
	Hash    Hash
	Stage   Stage
	Options CompileOptions
	Raw     []byte // compiled bytecode, kept for backend re-creation (device loss, etc.)
}
