package shader

import (
	"fmt"
	"sync"
)

// CacheKey identifies one compiled shader variant: the source bytecode's
// content hash, the target stage and model, and a hash of the compile
// options (entry point, defines, flags) that can otherwise vary
// independently of the source bytes. Keys compare by value, so they sort
// and map naturally; the tuple order (source, stage, model, options) is
// fixed so two keys are never ambiguous about which hash means what.
type CacheKey struct {
	Source  Hash
	Stage   Stage
	Model   ShaderModel
	Options Hash
}

func optionsHash(opts CompileOptions) Hash {
	return Compute(opts.hashBytes())
}

// NewCacheKey builds the cache key for source compiled with opts.
func NewCacheKey(source []byte, opts CompileOptions) CacheKey {
	return CacheKey{
		Source:  Compute(source),
		Stage:   opts.Stage,
		Model:   opts.Model,
		Options: optionsHash(opts),
	}
}

// ByteLoader reads the raw source bytes for a shader file path.
type ByteLoader func(path string) ([]byte, error)

// Manager is a path-keyed shader cache: Get compiles (via the configured
// Compiler) and caches a shader the first time a given (path, options)
// pair is requested, and returns the cached Shader thereafter.
//
// Manager is safe for concurrent use; compilation of two different keys
// can run concurrently, but a given key is only ever compiled once
// (subsequent concurrent callers for the same key block on the first
// compile rather than compiling it twice).
type Manager struct {
	mu       sync.Mutex
	loader   ByteLoader
	compiler Compiler
	byKey    map[CacheKey]*Shader
	byPath   map[string][]CacheKey
	inFlight map[CacheKey]*sync.WaitGroup
}

// NewManager creates a shader manager backed by loader (source bytes)
// and compiler (bytecode translation).
func NewManager(loader ByteLoader, compiler Compiler) *Manager {
	return &Manager{
		loader:   loader,
		compiler: compiler,
		byKey:    make(map[CacheKey]*Shader),
		byPath:   make(map[string][]CacheKey),
		inFlight: make(map[CacheKey]*sync.WaitGroup),
	}
}

// Get returns the compiled shader for path under opts, compiling and
// caching it on first request.
func (m *Manager) Get(path string, opts CompileOptions) (*Shader, error) {
	source, err := m.loader(path)
	if err != nil {
		return nil, fmt.Errorf("shader: loading %q: %w", path, err)
	}
	key := NewCacheKey(source, opts)

	m.mu.Lock()
	if s, ok := m.byKey[key]; ok {
		m.mu.Unlock()
		return s, nil
	}
	if wg, ok := m.inFlight[key]; ok {
		m.mu.Unlock()
		wg.Wait()
		m.mu.Lock()
		s := m.byKey[key]
		m.mu.Unlock()
		if s == nil {
			return nil, fmt.Errorf("shader: compiling %q failed in a concurrent request", path)
		}
		return s, nil
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	m.inFlight[key] = wg
	m.mu.Unlock()

	result, err := m.compiler.Compile(source, opts)

	m.mu.Lock()
	delete(m.inFlight, key)
	wg.Done()
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("shader: compiling %q: %w", path, err)
	}
	s := &Shader{Hash: result.Hash, Stage: opts.Stage, Options: opts, Raw: result.Bytecode}
	m.byKey[key] = s
	m.byPath[path] = append(m.byPath[path], key)
	m.mu.Unlock()

	return s, nil
}

// Invalidate drops every cached variant compiled from path, so the next
// Get recompiles from the current source. Used by hot reload.
func (m *Manager) Invalidate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.byPath[path] {
		delete(m.byKey, key)
	}
	delete(m.byPath, path)
}

// Len returns the number of distinct compiled variants currently cached.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}
