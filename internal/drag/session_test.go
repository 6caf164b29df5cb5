package drag

import (
	"testing"

	"github.com/1broseidon/tabdeck/internal/container"
)

func TestStartDragThenCancelReturnsNothing(t *testing.T) {
	s := NewSession()
	s.StartDrag("t1", container.Essentials(), 2)

	if !s.Active() {
		t.Fatal("session should be active after StartDrag")
	}

	op := s.EndDrag(false)
	if op != nil {
		t.Fatalf("cancel returned %+v, want nil", op)
	}
	if s.Active() {
		t.Error("session still active after cancel")
	}
	if s.Item() != "" {
		t.Errorf("item = %q, want empty after cancel", s.Item())
	}
	if target, idx := s.Target(); !target.IsNone() || idx != 0 {
		t.Errorf("target = %v[%d], want none[0] after cancel", target, idx)
	}
}

func TestEndDragWithoutStartReturnsNothing(t *testing.T) {
	s := NewSession()
	if op := s.EndDrag(true); op != nil {
		t.Fatalf("EndDrag on idle session = %+v, want nil", op)
	}
}

func TestStartDragWhileDraggingIsIgnored(t *testing.T) {
	s := NewSession()
	s.StartDrag("t1", container.Essentials(), 0)
	s.StartDrag("t2", container.SpaceRegular("s1"), 3)

	if s.Item() != "t1" {
		t.Errorf("item = %q, want t1 (second StartDrag must be a no-op)", s.Item())
	}
}

func TestUpdateTargetClampsNegativeIndex(t *testing.T) {
	s := NewSession()
	s.StartDrag("t1", container.Essentials(), 1)
	s.UpdateTarget(container.SpaceRegular("s1"), -5, "s1")

	_, idx := s.Target()
	if idx != 0 {
		t.Errorf("stored index = %d, want 0", idx)
	}
}

func TestUpdateTargetWhileIdleIsIgnored(t *testing.T) {
	s := NewSession()
	pulses := 0
	s.OnPulse = func(container.Container, int) { pulses++ }

	s.UpdateTarget(container.Essentials(), 1, "")
	if pulses != 0 {
		t.Errorf("pulses = %d, want 0 while idle", pulses)
	}
}

func TestCommitAtOriginReturnsNothing(t *testing.T) {
	s := NewSession()
	s.StartDrag("t1", container.SpacePinned("s1"), 4)
	s.UpdateTarget(container.SpacePinned("s1"), 4, "s1")

	if op := s.EndDrag(true); op != nil {
		t.Fatalf("commit at origin = %+v, want nil", op)
	}
	if s.Active() {
		t.Error("session still active after origin commit")
	}
}

func TestCommitProducesOperation(t *testing.T) {
	s := NewSession()
	s.StartDrag("t1", container.Essentials(), 2)
	s.UpdateTarget(container.SpacePinned("s1"), 0, "s1")

	op := s.EndDrag(true)
	if op == nil {
		t.Fatal("expected operation")
	}
	if op.Item != "t1" {
		t.Errorf("item = %q, want t1", op.Item)
	}
	if !op.From.Equal(container.Essentials()) || op.FromIndex != 2 {
		t.Errorf("from = %v[%d], want essentials[2]", op.From, op.FromIndex)
	}
	if !op.To.Equal(container.SpacePinned("s1")) || op.ToIndex != 0 {
		t.Errorf("to = %v[%d], want space_pinned(s1)[0]", op.To, op.ToIndex)
	}
	if !op.MovingBetweenContainers() {
		t.Error("MovingBetweenContainers = false, want true")
	}
	if op.IsReordering() {
		t.Error("IsReordering = true, want false")
	}
	if s.Active() {
		t.Error("session still active after commit")
	}
}

func TestReorderWithinContainer(t *testing.T) {
	s := NewSession()
	s.StartDrag("t1", container.SpaceRegular("s1"), 0)
	s.UpdateTarget(container.SpaceRegular("s1"), 3, "s1")

	op := s.EndDrag(true)
	if op == nil {
		t.Fatal("expected operation")
	}
	if op.MovingBetweenContainers() {
		t.Error("MovingBetweenContainers = true, want false")
	}
	if !op.IsReordering() {
		t.Error("IsReordering = false, want true")
	}
}

func TestPulseIsEdgeTriggered(t *testing.T) {
	s := NewSession()
	pulses := 0
	s.OnPulse = func(container.Container, int) { pulses++ }

	s.StartDrag("t1", container.Essentials(), 0)

	s.UpdateTarget(container.SpaceRegular("s1"), 3, "s1")
	s.UpdateTarget(container.SpaceRegular("s1"), 3, "s1")
	if pulses != 1 {
		t.Fatalf("pulses after repeated identical target = %d, want 1", pulses)
	}

	s.UpdateTarget(container.SpaceRegular("s1"), 4, "s1")
	if pulses != 2 {
		t.Fatalf("pulses after index change = %d, want 2", pulses)
	}

	s.UpdateTarget(container.SpacePinned("s1"), 4, "s1")
	if pulses != 3 {
		t.Fatalf("pulses after container change = %d, want 3", pulses)
	}
}

func TestPulseStateClearedBetweenDrags(t *testing.T) {
	s := NewSession()
	pulses := 0
	s.OnPulse = func(container.Container, int) { pulses++ }

	s.StartDrag("t1", container.Essentials(), 0)
	s.UpdateTarget(container.SpaceRegular("s1"), 3, "s1")
	s.EndDrag(false)

	// Same pair in a fresh drag must pulse again.
	s.StartDrag("t1", container.Essentials(), 0)
	s.UpdateTarget(container.SpaceRegular("s1"), 3, "s1")
	if pulses != 2 {
		t.Errorf("pulses = %d, want 2 (feedback state must reset per drag)", pulses)
	}
}

func TestIndicatorForwardedOnlyWhileDragging(t *testing.T) {
	s := NewSession()
	var got []Rect
	s.OnIndicator = func(r Rect) { got = append(got, r) }

	s.UpdateIndicator(Rect{X: 1, Y: 2, Width: 3, Height: 4})
	if len(got) != 0 {
		t.Fatalf("indicator forwarded while idle: %v", got)
	}

	s.StartDrag("t1", container.Essentials(), 0)
	s.UpdateIndicator(Rect{X: 10, Y: 20, Width: 30, Height: 4})
	if len(got) != 1 {
		t.Fatalf("indicator updates = %d, want 1", len(got))
	}
}
