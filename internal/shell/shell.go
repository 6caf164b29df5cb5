package shell

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/drag"
)

// ChangeFunc observes shell state changes. Invoked synchronously after each
// mutating operation, outside the shell lock.
type ChangeFunc func()

// MoveFunc observes committed move operations, outside the shell lock.
type MoveFunc func(drag.Operation)

// Status is a point-in-time summary of shell state.
type Status struct {
	Windows      int                `json:"windows"`
	Tabs         int                `json:"tabs"`
	Surfaces     int                `json:"surfaces"`
	ActiveWindow container.WindowID `json:"active_window,omitempty"`
	Dragging     bool               `json:"dragging"`
}

// Shell is the explicit context object owning the window registry, the
// surface registry, the per-container tab lists, and the drag session. It is
// constructed once and passed by reference to every collaborator.
//
// One mutex serializes all mutation. The registries and the session carry no
// locks of their own; the shell is their single writer.
type Shell struct {
	mu sync.Mutex

	windows  *WindowRegistry
	surfaces *SurfaceRegistry
	tabs     *TabLists
	session  *drag.Session
	engine   Engine

	// locators remembers each tab's content locator so lazily created
	// surfaces can be pointed at the right content.
	locators map[container.TabID]string

	onChange []ChangeFunc
	onMove   []MoveFunc
}

// NewShell creates a shell wired to the given rendering engine. A nil engine
// falls back to the headless engine.
func NewShell(engine Engine) *Shell {
	if engine == nil {
		engine = NewHeadlessEngine()
	}
	s := &Shell{
		windows:  NewWindowRegistry(),
		surfaces: NewSurfaceRegistry(),
		tabs:     NewTabLists(),
		session:  drag.NewSession(),
		engine:   engine,
		locators: make(map[container.TabID]string),
	}

	// Window removal purges that window's surfaces exactly once, before the
	// registry entry goes away.
	s.windows.OnCleanup(func(id container.WindowID) {
		for _, ws := range s.surfaces.ForWindow(id) {
			if removed := s.surfaces.Remove(ws.Tab, id); removed != nil {
				s.engine.DisposeSurface(removed)
			}
		}
	})

	return s
}

// OnChange subscribes to state-change notifications.
func (s *Shell) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// OnMove subscribes to committed move operations.
func (s *Shell) OnMove(fn MoveFunc) {
	s.mu.Lock()
	s.onMove = append(s.onMove, fn)
	s.mu.Unlock()
}

// SetPulseFunc installs the drag feedback pulse receiver.
func (s *Shell) SetPulseFunc(fn drag.PulseFunc) {
	s.mu.Lock()
	s.session.OnPulse = fn
	s.mu.Unlock()
}

// SetIndicatorFunc installs the insertion-indicator geometry receiver.
func (s *Shell) SetIndicatorFunc(fn drag.IndicatorFunc) {
	s.mu.Lock()
	s.session.OnIndicator = fn
	s.mu.Unlock()
}

// SetLivenessProbe installs the host-window liveness probe on the window
// registry.
func (s *Shell) SetLivenessProbe(probe LivenessProbe) {
	s.mu.Lock()
	s.windows.SetLivenessProbe(probe)
	s.mu.Unlock()
}

func (s *Shell) notify() {
	s.mu.Lock()
	observers := append([]ChangeFunc(nil), s.onChange...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

func (s *Shell) notifyMove(op drag.Operation) {
	s.mu.Lock()
	observers := append([]MoveFunc(nil), s.onMove...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(op)
	}
}

// OpenWindow creates and registers a new window showing the given space. The
// new window becomes active.
func (s *Shell) OpenWindow(space container.SpaceID) container.WindowID {
	s.mu.Lock()
	id := container.WindowID(uuid.NewString())
	s.windows.Register(&WindowContext{ID: id, SelectedSpace: space})
	s.windows.SetActive(id)
	s.mu.Unlock()

	log.Printf("Shell: opened window %s (space %s)", id, space)
	s.notify()
	return id
}

// AdoptHostWindow registers a window context tracking an existing platform
// window. If the host window is already tracked, its id is returned and
// nothing changes.
func (s *Shell) AdoptHostWindow(hostID uint32, space container.SpaceID) container.WindowID {
	s.mu.Lock()
	if w, ok := s.windows.ByHostID(hostID); ok {
		id := w.ID
		s.mu.Unlock()
		return id
	}
	id := container.WindowID(uuid.NewString())
	s.windows.Register(&WindowContext{ID: id, SelectedSpace: space, HostID: hostID})
	s.mu.Unlock()

	log.Printf("Shell: adopted host window 0x%x as %s", hostID, id)
	s.notify()
	return id
}

// CloseWindow unregisters a window. Its surfaces are purged and disposed via
// the cleanup callback. Unknown ids are ignored.
func (s *Shell) CloseWindow(id container.WindowID) {
	s.mu.Lock()
	_, known := s.windows.Get(id)
	s.windows.Unregister(id)
	s.mu.Unlock()

	if known {
		log.Printf("Shell: closed window %s", id)
		s.notify()
	}
}

// HandleHostClosed tears down the window tracking a destroyed platform
// window. Untracked host ids are ignored.
func (s *Shell) HandleHostClosed(hostID uint32) {
	s.mu.Lock()
	w, ok := s.windows.ByHostID(hostID)
	if !ok {
		s.mu.Unlock()
		return
	}
	id := w.ID
	s.windows.Unregister(id)
	s.mu.Unlock()

	log.Printf("Shell: host window 0x%x closed, removed %s", hostID, id)
	s.notify()
}

// ActivateWindow marks a window active. Unknown ids are ignored.
func (s *Shell) ActivateWindow(id container.WindowID) {
	s.mu.Lock()
	_, known := s.windows.Get(id)
	s.windows.SetActive(id)
	s.mu.Unlock()

	if known {
		s.notify()
	}
}

// ActivateByHost marks the window tracking hostID active, if any.
func (s *Shell) ActivateByHost(hostID uint32) {
	s.mu.Lock()
	w, ok := s.windows.ByHostID(hostID)
	if ok {
		s.windows.SetActive(w.ID)
	}
	s.mu.Unlock()

	if ok {
		s.notify()
	}
}

// ActiveWindow returns the active window id, or false when none.
func (s *Shell) ActiveWindow() (container.WindowID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows.Active()
}

// Windows returns value copies of the live window contexts.
func (s *Shell) Windows() []WindowContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.windows.All()
	out := make([]WindowContext, 0, len(live))
	for _, w := range live {
		out = append(out, *w)
	}
	return out
}

// OpenTab creates a tab in a container and remembers its content locator.
// Returns the new tab id, or empty when the container is none.
func (s *Shell) OpenTab(c container.Container, locator string) container.TabID {
	if c.IsNone() {
		return ""
	}
	s.mu.Lock()
	id := container.TabID(uuid.NewString())
	s.tabs.Append(c, id)
	s.locators[id] = locator
	s.mu.Unlock()

	log.Printf("Shell: opened tab %s in %s", id, c)
	s.notify()
	return id
}

// RestoreTab re-registers a tab under its persisted id, used when loading a
// snapshot at startup. Duplicate or empty ids and none containers are
// ignored. Restore does not notify observers.
func (s *Shell) RestoreTab(c container.Container, tab container.TabID, locator string) bool {
	if c.IsNone() || tab == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := s.tabs.Find(tab); ok {
		return false
	}
	s.tabs.Append(c, tab)
	s.locators[tab] = locator
	return true
}

// CloseTab removes a tab from its container and disposes its surfaces in
// every window. Windows showing the tab have their selection cleared.
// Unknown tabs are ignored.
func (s *Shell) CloseTab(tab container.TabID) {
	s.mu.Lock()
	c, _, ok := s.tabs.Find(tab)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.tabs.Remove(c, tab)
	delete(s.locators, tab)
	for _, surface := range s.surfaces.RemoveAll(tab) {
		s.engine.DisposeSurface(surface)
	}
	for _, w := range s.windows.All() {
		if w.SelectedTab == tab {
			w.SelectedTab = ""
		}
	}
	s.mu.Unlock()

	log.Printf("Shell: closed tab %s", tab)
	s.notify()
}

// ShowTab displays a tab in a window, creating its surface lazily on first
// display. Unknown windows or tabs are ignored.
func (s *Shell) ShowTab(win container.WindowID, tab container.TabID) {
	s.mu.Lock()
	w, ok := s.windows.Get(win)
	if !ok {
		s.mu.Unlock()
		return
	}
	c, _, ok := s.tabs.Find(tab)
	if !ok {
		s.mu.Unlock()
		return
	}

	w.SelectedTab = tab
	if space := c.Space; space != "" {
		w.SelectedSpace = space
	}
	s.ensureSurface(tab, win)
	s.mu.Unlock()

	s.notify()
}

// ensureSurface creates and stores a surface for (tab, win) if none exists.
// The propagation token guards against a surface update re-entering this
// path for the same tab. Caller holds the shell lock.
func (s *Shell) ensureSurface(tab container.TabID, win container.WindowID) {
	if _, ok := s.surfaces.Get(tab, win); ok {
		return
	}
	if !s.surfaces.BeginSync(tab) {
		return
	}
	defer s.surfaces.EndSync(tab)

	surface, err := s.engine.CreateSurface(tab)
	if err != nil {
		log.Printf("Shell: surface creation failed for %s: %v", tab, err)
		return
	}
	if replaced := s.surfaces.Store(surface, tab, win); replaced != nil {
		s.engine.DisposeSurface(replaced)
	}
	if locator := s.locators[tab]; locator != "" {
		if err := s.engine.LoadContent(surface, locator); err != nil {
			log.Printf("Shell: content load failed for %s: %v", tab, err)
		}
	}
}

// Surface returns the surface for (tab, win), if any.
func (s *Shell) Surface(tab container.TabID, win container.WindowID) (*Surface, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surfaces.Get(tab, win)
}

// Tabs returns the ordered tabs in a container.
func (s *Shell) Tabs(c container.Container) []container.TabID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabs.Tabs(c)
}

// Orderings returns every container's ordering for snapshotting.
func (s *Shell) Orderings() []ContainerTabs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabs.Orderings()
}

// Locator returns the content locator recorded for a tab.
func (s *Shell) Locator(tab container.TabID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locators[tab]
}

// BeginDrag starts a drag gesture for a tab at its current position. Returns
// false when the tab is unknown or a drag is already active.
func (s *Shell) BeginDrag(tab container.TabID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Active() {
		return false
	}
	c, idx, ok := s.tabs.Find(tab)
	if !ok {
		return false
	}
	s.session.StartDrag(tab, c, idx)
	return s.session.Active()
}

// DragOver updates the current drop target while dragging.
func (s *Shell) DragOver(target container.Container, index int, space container.SpaceID) {
	s.mu.Lock()
	s.session.UpdateTarget(target, index, space)
	s.mu.Unlock()
}

// DragIndicator forwards insertion-indicator geometry while dragging.
func (s *Shell) DragIndicator(rect drag.Rect) {
	s.mu.Lock()
	s.session.UpdateIndicator(rect)
	s.mu.Unlock()
}

// EndDrag finishes the gesture. On commit the resulting operation is applied
// to the tab lists and returned; cancel and at-origin release return nil.
func (s *Shell) EndDrag(commit bool) *drag.Operation {
	s.mu.Lock()
	op := s.session.EndDrag(commit)
	if op != nil {
		s.applyLocked(op)
	}
	s.mu.Unlock()

	if op != nil {
		s.notifyMove(*op)
		s.notify()
	}
	return op
}

// MoveTab moves a tab to a container position by driving a programmatic drag
// session, so programmatic moves and gesture moves share one validation
// path. Returns the applied operation, or nil when the move resolves to a
// no-op or the tab is unknown.
func (s *Shell) MoveTab(tab container.TabID, to container.Container, index int, space container.SpaceID) *drag.Operation {
	s.mu.Lock()
	if s.session.Active() {
		s.mu.Unlock()
		return nil
	}
	c, idx, ok := s.tabs.Find(tab)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.session.StartDrag(tab, c, idx)
	s.session.UpdateTarget(to, index, space)
	op := s.session.EndDrag(true)
	if op != nil {
		s.applyLocked(op)
	}
	s.mu.Unlock()

	if op != nil {
		s.notifyMove(*op)
		s.notify()
	}
	return op
}

// applyLocked splices the tab lists per the operation and ensures the moved
// tab has a surface in each window now displaying its destination. Caller
// holds the shell lock.
func (s *Shell) applyLocked(op *drag.Operation) {
	if !s.tabs.Apply(op) {
		log.Printf("Shell: move of %s dropped, tab left %s", op.Item, op.From)
		return
	}
	for _, w := range s.windows.All() {
		if s.windowDisplays(w, op) {
			s.ensureSurface(op.Item, w.ID)
		}
	}
}

// windowDisplays reports whether a window shows the destination container of
// an applied operation. Global containers are visible in every window; space
// containers only in windows selected to that space.
func (s *Shell) windowDisplays(w *WindowContext, op *drag.Operation) bool {
	switch op.To.Kind {
	case container.KindEssentials:
		return true
	case container.KindSpacePinned, container.KindSpaceRegular:
		return w.SelectedSpace == op.To.Space
	default:
		return false
	}
}

// Dragging reports whether a drag gesture is in flight.
func (s *Shell) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Active()
}

// ReconcileHosts prunes windows whose host window no longer exists, per the
// alive set. Windows without a host id are untouched. Returns the number of
// windows pruned.
func (s *Shell) ReconcileHosts(alive func(hostID uint32) bool) int {
	if alive == nil {
		return 0
	}
	s.mu.Lock()
	var orphans []container.WindowID
	for _, w := range s.windows.All() {
		if w.HostID != 0 && !alive(w.HostID) {
			orphans = append(orphans, w.ID)
		}
	}
	for _, id := range orphans {
		s.windows.Unregister(id)
	}
	s.mu.Unlock()

	if len(orphans) > 0 {
		log.Printf("Shell: reconciled %d orphaned window(s)", len(orphans))
		s.notify()
	}
	return len(orphans)
}

// Status returns a point-in-time summary.
func (s *Shell) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, _ := s.windows.Active()
	tabs := 0
	for _, ct := range s.tabs.Orderings() {
		tabs += len(ct.Tabs)
	}
	return Status{
		Windows:      s.windows.Len(),
		Tabs:         tabs,
		Surfaces:     s.surfaces.Len(),
		ActiveWindow: active,
		Dragging:     s.session.Active(),
	}
}
