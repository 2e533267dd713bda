package shader

// ModTimeSource reports a file's last-modified stamp in whatever clock
// the caller uses (unix seconds, a monotonic build counter, etc.); only
// equality/inequality between successive calls matters.
type ModTimeSource func(path string) (int64, error)

// ChangedCallback is invoked once per path that CheckForChanges found
// modified, after its cached variants have already been invalidated.
type ChangedCallback func(path string)

// HotReloader watches the set of paths a Manager has compiled from and
// invalidates + reports any that changed on disk since the last check.
type HotReloader struct {
	manager  *Manager
	modTime  ModTimeSource
	lastSeen map[string]int64
}

// NewHotReloader creates a reloader over manager using modTime to read
// file modification stamps.
func NewHotReloader(manager *Manager, modTime ModTimeSource) *HotReloader {
	return &HotReloader{manager: manager, modTime: modTime, lastSeen: make(map[string]int64)}
}

// CheckForChanges stats every path currently cached in the manager,
// invalidates any whose modification stamp advanced since the last
// check, and invokes onChanged for each. Returns the list of changed
// paths. A path whose stat fails (e.g. deleted mid-session) is skipped,
// not treated as changed.
func (r *HotReloader) CheckForChanges(onChanged ChangedCallback) []string {
	var changed []string
	r.manager.mu.Lock()
	paths := make([]string, 0, len(r.manager.byPath))
	for p := range r.manager.byPath {
		paths = append(paths, p)
	}
	r.manager.mu.Unlock()

	for _, p := range paths {
		t, err := r.modTime(p)
		if err != nil {
			continue
		}
		prev, seen := r.lastSeen[p]
		r.lastSeen[p] = t
		if seen && t == prev {
			continue
		}
		if seen {
			r.manager.Invalidate(p)
			changed = append(changed, p)
			if onChanged != nil {
				onChanged(p)
			}
		}
	}
	return changed
}

// ReloadChangedShaders is a convenience wrapper that checks for changes
// and eagerly recompiles each changed path under opts, so the next Get
// does not pay the first-use compile cost on the caller's critical path.
func (r *HotReloader) ReloadChangedShaders(opts CompileOptions) ([]string, error) {
	var firstErr error
	changed := r.CheckForChanges(func(path string) {
		if _, err := r.manager.Get(path, opts); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return changed, firstErr
}
