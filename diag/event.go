package diag

import "github.com/nsrhi/rhi/gpu"

// BeginEvent opens a named, colored debug event on cmd and returns a
// closer that ends it — intended for `defer diag.BeginEvent(cmd, "Shadow
// Pass", 0xFF0000FF)()`, mirroring a PIX/RenderDoc marker scope without
// requiring callers to remember the matching EndDebugEvent call.
func BeginEvent(cmd gpu.CommandContext, name string, rgba uint32) func() {
	cmd.BeginDebugEvent(name, rgba)
	return cmd.EndDebugEvent
}
