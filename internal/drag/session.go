package drag

import (
	"log"

	"github.com/1broseidon/tabdeck/internal/container"
)

// Phase represents the current phase of a drag session
type Phase int

const (
	// PhaseIdle means no drag is in progress
	PhaseIdle Phase = iota
	// PhaseDragging means an item is grabbed and tracking a drop target
	PhaseDragging
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Rect describes the insertion-indicator geometry in window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// PulseFunc is called once per distinct target (container, index) change,
// for haptic/visual feedback. One-way; no return value.
type PulseFunc func(target container.Container, index int)

// IndicatorFunc receives insertion-indicator geometry updates. One-way.
type IndicatorFunc func(rect Rect)

// Session tracks a single in-flight tab move gesture. At most one drag is
// active at a time; every exit path returns the session to the idle state.
// All inputs are validated by clamping or ignoring them; misuse narrows
// state or returns nothing, never panics.
//
// Session is not internally locked: the owning shell serializes access the
// same way it serializes its registries.
type Session struct {
	phase       Phase
	item        container.TabID
	origin      container.Container
	originIndex int
	target      container.Container
	targetIndex int
	targetSpace container.SpaceID

	// lastPulseTarget/lastPulseIndex record the pair the last feedback
	// pulse fired for, so repeated UpdateTarget calls with an unchanged
	// pair stay silent.
	lastPulseTarget container.Container
	lastPulseIndex  int
	pulsed          bool

	// OnPulse is invoked for each distinct target change while dragging.
	OnPulse PulseFunc
	// OnIndicator receives insertion-indicator geometry while dragging.
	OnIndicator IndicatorFunc
}

// NewSession creates an idle session.
func NewSession() *Session {
	s := &Session{}
	s.reset()
	return s
}

// Active reports whether a drag is in progress.
func (s *Session) Active() bool {
	return s.phase == PhaseDragging
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// StartDrag begins a drag of item from origin at originIndex. Valid only
// from idle; starting while already dragging is ignored.
func (s *Session) StartDrag(item container.TabID, origin container.Container, originIndex int) {
	if s.phase != PhaseIdle {
		return
	}
	if item == "" {
		return
	}
	if originIndex < 0 {
		originIndex = 0
	}

	s.phase = PhaseDragging
	s.item = item
	s.origin = origin
	s.originIndex = originIndex

	// The target starts at the origin so a release without movement is a
	// clean no-op.
	s.target = origin
	s.targetIndex = originIndex
	s.targetSpace = ""

	log.Printf("Drag: started for %s from %s index %d", item, origin, originIndex)
}

// UpdateTarget records the current drop target. Valid only while dragging.
// Negative indices are clamped to 0 before they reach stored state. The
// feedback pulse fires only when the (container, index) pair differs from
// the previously pulsed pair.
func (s *Session) UpdateTarget(target container.Container, index int, space container.SpaceID) {
	if s.phase != PhaseDragging {
		return
	}
	if index < 0 {
		index = 0
	}

	s.target = target
	s.targetIndex = index
	s.targetSpace = space

	if s.pulsed && s.lastPulseTarget.Equal(target) && s.lastPulseIndex == index {
		return
	}
	s.lastPulseTarget = target
	s.lastPulseIndex = index
	s.pulsed = true
	if s.OnPulse != nil {
		s.OnPulse(target, index)
	}
}

// UpdateIndicator forwards insertion-indicator geometry to the feedback
// collaborator. Valid only while dragging; ignored otherwise.
func (s *Session) UpdateIndicator(rect Rect) {
	if s.phase != PhaseDragging {
		return
	}
	if s.OnIndicator != nil {
		s.OnIndicator(rect)
	}
}

// EndDrag finishes the session and returns the resulting operation, if any.
// The session is always reset to idle before returning, on every branch.
// Nothing is returned when no drag is active, when commit is false, or when
// the final target equals the origin (same container and index): releasing
// a drag where it started must not produce a spurious move.
func (s *Session) EndDrag(commit bool) *Operation {
	defer s.reset()

	if s.phase != PhaseDragging {
		return nil
	}
	if !commit {
		log.Printf("Drag: cancelled for %s", s.item)
		return nil
	}
	if s.target.Equal(s.origin) && s.targetIndex == s.originIndex {
		log.Printf("Drag: released at origin for %s, no-op", s.item)
		return nil
	}

	op := &Operation{
		Item:      s.item,
		From:      s.origin,
		FromIndex: s.originIndex,
		To:        s.target,
		ToIndex:   s.targetIndex,
		ToSpace:   s.targetSpace,
	}
	log.Printf("Drag: committed %s %s[%d] -> %s[%d]", op.Item, op.From, op.FromIndex, op.To, op.ToIndex)
	return op
}

// reset returns the session to its canonical idle state. Callback
// registrations survive; all gesture state is cleared so no stale target or
// feedback index can leak into the next drag.
func (s *Session) reset() {
	s.phase = PhaseIdle
	s.item = ""
	s.origin = container.None
	s.originIndex = 0
	s.target = container.None
	s.targetIndex = 0
	s.targetSpace = ""
	s.lastPulseTarget = container.None
	s.lastPulseIndex = 0
	s.pulsed = false
}

// Item returns the dragged item id, or empty when idle.
func (s *Session) Item() container.TabID {
	return s.item
}

// Target returns the current drop target while dragging.
func (s *Session) Target() (container.Container, int) {
	return s.target, s.targetIndex
}
