package daemon

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/1broseidon/tabdeck/internal/shell"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconcilePrunesOrphanedWindows(t *testing.T) {
	sh := shell.NewShell(nil)
	sh.AdoptHostWindow(0x100, "s1")
	kept := sh.AdoptHostWindow(0x200, "s1")
	plain := sh.OpenWindow("s1")

	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, sh, func() ([]uint32, error) {
		return []uint32{0x200}, nil
	})
	r.ReconcileNow()

	windows := sh.Windows()
	if len(windows) != 2 {
		t.Fatalf("windows = %d, want 2", len(windows))
	}
	for _, w := range windows {
		if w.ID != kept && w.ID != plain {
			t.Errorf("unexpected survivor %s", w.ID)
		}
	}
}

func TestReconcileSkipsOnListError(t *testing.T) {
	sh := shell.NewShell(nil)
	sh.AdoptHostWindow(0x100, "s1")

	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, sh, func() ([]uint32, error) {
		return nil, errors.New("connection lost")
	})
	r.ReconcileNow()

	if len(sh.Windows()) != 1 {
		t.Error("a failed host listing pruned windows")
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	sh := shell.NewShell(nil)
	sh.AdoptHostWindow(0x100, "s1")

	changes := 0
	sh.OnChange(func() { changes++ })

	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, sh, func() ([]uint32, error) {
		return nil, nil
	})
	r.ReconcileNow()
	r.ReconcileNow()

	if len(sh.Windows()) != 0 {
		t.Fatal("orphan survived reconciliation")
	}
	if changes != 1 {
		t.Errorf("changes = %d, want 1 (no-op passes stay silent)", changes)
	}
}

func TestReconcilerDefaultInterval(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, shell.NewShell(nil), nil)
	if r.interval != 10*time.Second {
		t.Errorf("interval = %v, want 10s default", r.interval)
	}
}
