package shell

import (
	"github.com/1broseidon/tabdeck/internal/container"
)

// WindowContext represents one open top-level shell window. It is owned
// exclusively by the WindowRegistry while open; everything else refers to
// it by id only.
type WindowContext struct {
	ID container.WindowID

	// SelectedTab is the currently shown tab, empty when none.
	SelectedTab container.TabID
	// SelectedSpace is the space the window currently displays, empty
	// when none.
	SelectedSpace container.SpaceID

	// HostID is a weak reference to the platform window backing this
	// context (0 = untracked). Ownership of the platform window stays
	// with the window host; the registry only prunes contexts whose
	// host window is gone.
	HostID uint32
}

// CleanupFunc runs before a window is removed from the registry, so
// collaborators (the surface registry in particular) can purge state keyed
// to the window id.
type CleanupFunc func(id container.WindowID)

// ActiveChangeFunc observes active-window changes.
type ActiveChangeFunc func(id container.WindowID)

// LivenessProbe reports whether a host window still exists. Used for
// prune-on-read of weak host references.
type LivenessProbe func(hostID uint32) bool

// WindowRegistry is the single source of truth for which windows exist and
// which one is active. It carries no locking: the owning shell serializes
// all access behind the single UI writer.
type WindowRegistry struct {
	windows map[container.WindowID]*WindowContext
	order   []container.WindowID
	active  container.WindowID

	cleanups []CleanupFunc
	onActive []ActiveChangeFunc
	alive    LivenessProbe
}

// NewWindowRegistry creates an empty registry.
func NewWindowRegistry() *WindowRegistry {
	return &WindowRegistry{
		windows: make(map[container.WindowID]*WindowContext),
	}
}

// OnCleanup registers a callback invoked before each window removal.
func (r *WindowRegistry) OnCleanup(fn CleanupFunc) {
	r.cleanups = append(r.cleanups, fn)
}

// OnActiveChange registers an observer for active-window changes.
func (r *WindowRegistry) OnActiveChange(fn ActiveChangeFunc) {
	r.onActive = append(r.onActive, fn)
}

// SetLivenessProbe installs the host-window liveness probe used for
// prune-on-read. A nil probe disables pruning.
func (r *WindowRegistry) SetLivenessProbe(probe LivenessProbe) {
	r.alive = probe
}

// Register inserts a window by id. Registering an id that is already
// present is a silent no-op.
func (r *WindowRegistry) Register(w *WindowContext) {
	if w == nil || w.ID == "" {
		return
	}
	if _, ok := r.windows[w.ID]; ok {
		return
	}
	r.windows[w.ID] = w
	r.order = append(r.order, w.ID)
}

// Unregister removes a window, invoking cleanup callbacks first so the
// surface registry can purge entries keyed to the window id. Removal
// happens exactly once; unregistering an unknown id is a no-op. If the
// removed window was active, the active pointer is cleared; promoting
// another window is the caller's policy, not the registry's.
func (r *WindowRegistry) Unregister(id container.WindowID) {
	if _, ok := r.windows[id]; !ok {
		return
	}

	for _, fn := range r.cleanups {
		fn(id)
	}

	delete(r.windows, id)
	for i, wid := range r.order {
		if wid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.active == id {
		r.active = ""
	}
}

// SetActive marks a registered window as active and notifies observers.
// Unknown ids are ignored.
func (r *WindowRegistry) SetActive(id container.WindowID) {
	if _, ok := r.windows[id]; !ok {
		return
	}
	if r.active == id {
		return
	}
	r.active = id
	for _, fn := range r.onActive {
		fn(id)
	}
}

// Active returns the active window id, or false when none.
func (r *WindowRegistry) Active() (container.WindowID, bool) {
	if r.active == "" {
		return "", false
	}
	return r.active, true
}

// Get looks up a window by id. A window whose weak host reference turns out
// dead is pruned (with cleanup) and reported as absent.
func (r *WindowRegistry) Get(id container.WindowID) (*WindowContext, bool) {
	w, ok := r.windows[id]
	if !ok {
		return nil, false
	}
	if r.stale(w) {
		r.Unregister(id)
		return nil, false
	}
	return w, true
}

// All returns the live windows in registration order, pruning any whose
// host window has been destroyed externally.
func (r *WindowRegistry) All() []*WindowContext {
	var stale []container.WindowID
	out := make([]*WindowContext, 0, len(r.order))
	for _, id := range r.order {
		w := r.windows[id]
		if r.stale(w) {
			stale = append(stale, id)
			continue
		}
		out = append(out, w)
	}
	for _, id := range stale {
		r.Unregister(id)
	}
	return out
}

// ByHostID finds the window context tracking a platform window id.
func (r *WindowRegistry) ByHostID(hostID uint32) (*WindowContext, bool) {
	if hostID == 0 {
		return nil, false
	}
	for _, id := range r.order {
		if w := r.windows[id]; w != nil && w.HostID == hostID {
			return w, true
		}
	}
	return nil, false
}

// Len returns the number of registered windows without pruning.
func (r *WindowRegistry) Len() int {
	return len(r.windows)
}

func (r *WindowRegistry) stale(w *WindowContext) bool {
	return r.alive != nil && w != nil && w.HostID != 0 && !r.alive(w.HostID)
}
