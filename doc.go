// Package rhi is the Render Hardware Interface core of a D3D12-class 3D
// engine. It is the abstraction layer between a renderer and a concrete GPU
// backend: it owns every GPU lifetime concern so that backends and the
// renderer never have to reason about descriptor slot reuse, deferred
// frees, or shader permutation identity themselves.
//
// # Architecture
//
// The core is layered by dependency, leaves first:
//
//  1. gpu     - external backend contracts (Device, CommandContext, Fence)
//  2. gputype - backend-agnostic value types (formats, usage flags)
//  3. resource - reference-counted resource base and the deferred-delete queue
//  4. descriptor - descriptor heaps: offline, online (ring), bindless, staging
//  5. sampler  - sampler cache, presets, and the named sampler registry
//  6. shader   - shader bytecode model, manager, permutations, bound-shader-state
//  7. rootsig  - root parameters, descriptor ranges, binding-layout conversion
//  8. transient - per-frame aliased buffer/texture allocator
//  9. diag     - breadcrumbs, GPU timers, and the frame timestamp timeline
//
// The D3D12 (or Vulkan, Metal, ...) backend itself lives outside this
// module: it only has to satisfy the gpu.Device / gpu.CommandContext
// contracts. Nothing in this package issues a GPU API call directly.
//
// # Thread safety
//
// Per-package doc comments state the concurrency contract for each type;
// see the package-level table in the project design notes. As a rule,
// caches reached from multiple recording threads (resource.DeferredDeleteQueue,
// shader.BoundShaderStateCache) are internally synchronized, while
// per-frame allocators (descriptor.OnlineRing, transient.Allocator) are not
// and are meant to be owned by a single recording context.
package rhi
