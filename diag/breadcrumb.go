// Package diag implements GPU diagnostics: breadcrumb scope tracking for
// crash forensics, a timestamp-query-backed frame timer timeline, and a
// scope-guarded wrapper over command-list debug events.
package diag

import (
	"fmt"
	"runtime"
	"strings"
)

// BreadcrumbNode is one entry in a breadcrumb scope tree: a named point
// in the command stream, linked to whichever scope was active when it
// was pushed.
type BreadcrumbNode struct {
	ID     uint32
	Name   string
	File   string
	Line   int
	parent *BreadcrumbNode
}

// GetFullPath renders the node's ancestry as a "/"-joined path, root
// first, e.g. "/DrawShadow/DrawOpaque/DrawMesh".
func (n *BreadcrumbNode) GetFullPath() string {
	var names []string
	for cur := n; cur != nil; cur = cur.parent {
		names = append(names, cur.Name)
	}
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(names[i])
	}
	return b.String()
}

// BreadcrumbState tracks the currently-open scope stack for one
// command-recording context and mirrors each push into a fixed-size
// buffer that models a GPU-writable breadcrumb buffer: the backend
// writes BreadcrumbState.LastWritten() into real GPU memory right
// before issuing the scope's draw/dispatch, so that if the GPU hangs or
// faults, a CPU-side readback of that memory says exactly which scope
// was in flight.
//
// One BreadcrumbState belongs to one recording context (goroutine); it
// is not shared across command lists, which is why it is a plain
// per-context struct rather than goroutine-local storage — idiomatic Go
// has no supported GLS mechanism, and a context object that the caller
// threads explicitly is the natural replacement.
type BreadcrumbState struct {
	arena    []BreadcrumbNode
	next     int
	nextID   uint32
	stack    []*BreadcrumbNode
	readback []uint32
	writeIdx int
}

// NewBreadcrumbState creates a state with a fixed-capacity arena and
// readback buffer of the given size. capacity bounds how many scopes can
// be open across a frame before PushScope starts reusing slots (callers
// reset via BeginFrame once per frame, matching the GPU buffer's actual
// per-frame reuse).
func NewBreadcrumbState(capacity int) *BreadcrumbState {
	return &BreadcrumbState{
		arena:    make([]BreadcrumbNode, capacity),
		readback: make([]uint32, capacity),
	}
}

// BeginFrame resets the arena and readback buffer for reuse, matching a
// GPU breadcrumb buffer being rewritten fresh every frame.
func (s *BreadcrumbState) BeginFrame() {
	s.next = 0
	s.writeIdx = 0
	s.stack = s.stack[:0]
	for i := range s.readback {
		s.readback[i] = 0
	}
}

// PushScope opens a new named scope nested under whichever scope is
// currently open (or the root, if the stack is empty), writes its ID
// into the readback buffer, and returns the ID.
func (s *BreadcrumbState) PushScope(name string) uint32 {
	if s.next >= len(s.arena) {
		// Arena exhausted mid-frame: wrap and overwrite the oldest
		// entry rather than panic, matching a fixed-size GPU buffer.
		s.next = 0
	}
	_, file, line, _ := runtime.Caller(1)

	node := &s.arena[s.next]
	s.next++

	var parent *BreadcrumbNode
	if len(s.stack) > 0 {
		parent = s.stack[len(s.stack)-1]
	}

	s.nextID++
	*node = BreadcrumbNode{ID: s.nextID, Name: name, File: file, Line: line, parent: parent}
	s.stack = append(s.stack, node)

	s.readback[s.writeIdx%len(s.readback)] = node.ID
	s.writeIdx++

	return node.ID
}

// PopScope closes the innermost open scope.
func (s *BreadcrumbState) PopScope() {
	if len(s.stack) == 0 {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// Current returns the innermost currently-open scope, or nil.
func (s *BreadcrumbState) Current() *BreadcrumbNode {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// ReadbackBuffer returns the simulated GPU-writable breadcrumb buffer:
// the sequence of scope IDs written, in write order, wrapping if the
// arena wrapped.
func (s *BreadcrumbState) ReadbackBuffer() []uint32 { return s.readback }

// LastWritten returns the ID most recently written to the readback
// buffer, or 0 if nothing has been pushed this frame.
func (s *BreadcrumbState) LastWritten() uint32 {
	if s.writeIdx == 0 {
		return 0
	}
	return s.readback[(s.writeIdx-1)%len(s.readback)]
}

// FindByID returns the node with the given ID, searching the live
// arena, or nil if not found (e.g. it has already been overwritten by a
// wrap).
func (s *BreadcrumbState) FindByID(id uint32) *BreadcrumbNode {
	for i := range s.arena {
		if s.arena[i].ID == id {
			return &s.arena[i]
		}
	}
	return nil
}

// WriteCrashData formats node for inclusion in a crash report:
// "[BC#id] /full/path (file:line)".
func WriteCrashData(node *BreadcrumbNode) string {
	if node == nil {
		return "[BC#0] <no breadcrumb recorded>"
	}
	return fmt.Sprintf("[BC#%d] %s (%s:%d)", node.ID, node.GetFullPath(), node.File, node.Line)
}
