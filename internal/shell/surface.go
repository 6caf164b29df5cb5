package shell

import (
	"github.com/1broseidon/tabdeck/internal/container"
)

type surfaceKey struct {
	tab container.TabID
	win container.WindowID
}

// WindowSurface pairs a tab id with its surface for window-scoped
// enumeration.
type WindowSurface struct {
	Tab     container.TabID
	Surface *Surface
}

// SurfaceRegistry owns the map from (tab, window) to render-surface
// handles. At most one surface exists per key; surface content lifecycle is
// the engine's responsibility; the registry only hands back replaced or
// removed handles for the caller to dispose.
//
// Like the window registry it is single-writer and carries no locks.
type SurfaceRegistry struct {
	surfaces map[surfaceKey]*Surface

	// syncing holds the per-tab reentrancy tokens. A propagation pass for
	// a tab acquires the token before reading and writing surface state
	// and releases it on every exit path, so a surface update that
	// re-triggers the same pass stops instead of looping.
	syncing map[container.TabID]struct{}
}

// NewSurfaceRegistry creates an empty registry.
func NewSurfaceRegistry() *SurfaceRegistry {
	return &SurfaceRegistry{
		surfaces: make(map[surfaceKey]*Surface),
		syncing:  make(map[container.TabID]struct{}),
	}
}

// Get returns the surface for (tab, win), or false when absent.
func (r *SurfaceRegistry) Get(tab container.TabID, win container.WindowID) (*Surface, bool) {
	s, ok := r.surfaces[surfaceKey{tab: tab, win: win}]
	return s, ok
}

// Store records a surface under (tab, win), replacing any existing entry.
// The replaced surface (if any) is returned and must be disposed by the
// caller; the registry never holds two surfaces for one key.
func (r *SurfaceRegistry) Store(s *Surface, tab container.TabID, win container.WindowID) *Surface {
	if s == nil {
		return nil
	}
	key := surfaceKey{tab: tab, win: win}
	old := r.surfaces[key]
	if old == s {
		return nil
	}
	r.surfaces[key] = s
	return old
}

// Remove deletes the entry for (tab, win) and returns the removed surface
// for disposal. Removing an absent key is a safe no-op returning nil.
func (r *SurfaceRegistry) Remove(tab container.TabID, win container.WindowID) *Surface {
	key := surfaceKey{tab: tab, win: win}
	s, ok := r.surfaces[key]
	if !ok {
		return nil
	}
	delete(r.surfaces, key)
	return s
}

// RemoveAll deletes every entry for a tab across all windows, returning the
// removed surfaces keyed by window id. Used when the tab itself closes.
func (r *SurfaceRegistry) RemoveAll(tab container.TabID) map[container.WindowID]*Surface {
	out := make(map[container.WindowID]*Surface)
	for key, s := range r.surfaces {
		if key.tab == tab {
			out[key.win] = s
			delete(r.surfaces, key)
		}
	}
	return out
}

// ForWindow enumerates the surfaces owned by one window, used during window
// teardown.
func (r *SurfaceRegistry) ForWindow(win container.WindowID) []WindowSurface {
	var out []WindowSurface
	for key, s := range r.surfaces {
		if key.win == win {
			out = append(out, WindowSurface{Tab: key.tab, Surface: s})
		}
	}
	return out
}

// Len returns the number of stored surfaces.
func (r *SurfaceRegistry) Len() int {
	return len(r.surfaces)
}

// BeginSync acquires the propagation token for a tab. It returns false when
// the tab is already mid-propagation, in which case the caller must back
// off instead of recursing.
func (r *SurfaceRegistry) BeginSync(tab container.TabID) bool {
	if _, ok := r.syncing[tab]; ok {
		return false
	}
	r.syncing[tab] = struct{}{}
	return true
}

// IsSyncing reports whether a propagation pass for the tab is in flight.
func (r *SurfaceRegistry) IsSyncing(tab container.TabID) bool {
	_, ok := r.syncing[tab]
	return ok
}

// EndSync releases the propagation token. Releasing an unheld token is a
// no-op, so callers can defer it unconditionally.
func (r *SurfaceRegistry) EndSync(tab container.TabID) {
	delete(r.syncing, tab)
}
