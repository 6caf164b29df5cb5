package shell

import (
	"github.com/google/uuid"

	"github.com/1broseidon/tabdeck/internal/container"
)

// Surface is an opaque handle to a tab's rendered content scoped to one
// window. The shell stores and retrieves handles; it never inspects the
// content behind them.
type Surface struct {
	ID  string
	Tab container.TabID

	// content is engine-private state carried along with the handle.
	content any
}

// NewSurface creates a surface handle for an engine implementation.
func NewSurface(tab container.TabID, content any) *Surface {
	return &Surface{
		ID:      uuid.NewString(),
		Tab:     tab,
		content: content,
	}
}

// Content returns the engine-private state attached to the handle.
func (s *Surface) Content() any {
	if s == nil {
		return nil
	}
	return s.content
}

// Engine abstracts the browser rendering collaborator. Implementations own
// the actual page content; the shell only tracks handles.
type Engine interface {
	// CreateSurface allocates a fresh surface for a tab.
	CreateSurface(tab container.TabID) (*Surface, error)
	// LoadContent points a surface at a content locator (e.g. a URL).
	LoadContent(surface *Surface, locator string) error
	// DisposeSurface releases a surface's underlying content.
	DisposeSurface(surface *Surface)
}

// HeadlessEngine is an Engine that tracks handles without rendering
// anything. It backs the daemon when no rendering collaborator is attached
// and doubles as the test engine.
type HeadlessEngine struct {
	created  int
	disposed int
	loaded   map[string]string // surface id -> last locator
}

// NewHeadlessEngine creates an empty headless engine.
func NewHeadlessEngine() *HeadlessEngine {
	return &HeadlessEngine{loaded: make(map[string]string)}
}

func (e *HeadlessEngine) CreateSurface(tab container.TabID) (*Surface, error) {
	e.created++
	return NewSurface(tab, nil), nil
}

func (e *HeadlessEngine) LoadContent(surface *Surface, locator string) error {
	e.loaded[surface.ID] = locator
	return nil
}

func (e *HeadlessEngine) DisposeSurface(surface *Surface) {
	if surface == nil {
		return
	}
	e.disposed++
	delete(e.loaded, surface.ID)
}

// Live returns the number of surfaces created and not yet disposed.
func (e *HeadlessEngine) Live() int {
	return e.created - e.disposed
}

// Locator returns the last locator loaded into a surface.
func (e *HeadlessEngine) Locator(surface *Surface) string {
	if surface == nil {
		return ""
	}
	return e.loaded[surface.ID]
}
