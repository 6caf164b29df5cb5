package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/tabdeck/internal/shell"
)

// HostLister is a function that returns the ids of host windows that
// currently exist.
type HostLister func() ([]uint32, error)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically compares the window registry against the live
// host windows and prunes orphans. Polling is purely corrective: a pass
// only removes windows whose host is confirmed gone and never touches
// state the event path already keeps fresh. Windows without a host id are
// outside its scope entirely.
type Reconciler struct {
	interval  time.Duration
	shell     *shell.Shell
	listHosts HostLister
	logger    *slog.Logger
}

// NewReconciler creates a reconciler with the given configuration. The
// listHosts function should return current host window ids.
func NewReconciler(cfg ReconcilerConfig, sh *shell.Shell, listHosts HostLister) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Reconciler{
		interval:  interval,
		shell:     sh,
		listHosts: listHosts,
		logger:    cfg.Logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	hostIDs, err := r.listHosts()
	if err != nil {
		// A failed listing must not prune anything; skip the pass.
		r.logger.Error("reconciler: failed to list host windows", "error", err)
		return
	}

	alive := make(map[uint32]bool, len(hostIDs))
	for _, id := range hostIDs {
		alive[id] = true
	}

	pruned := r.shell.ReconcileHosts(func(hostID uint32) bool {
		return alive[hostID]
	})
	if pruned > 0 {
		r.logger.Info("reconciler: pruned orphaned windows", "count", pruned)
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
