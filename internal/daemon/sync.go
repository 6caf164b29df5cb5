package daemon

import (
	"log/slog"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/shell"
)

// StateSynchronizer translates host window lifecycle events into shell
// mutations. It is the event-driven half of state maintenance; the
// Reconciler is the polling safety net behind it.
type StateSynchronizer struct {
	shell  *shell.Shell
	logger *slog.Logger
}

// NewStateSynchronizer creates a synchronizer driving the given shell.
func NewStateSynchronizer(sh *shell.Shell, logger *slog.Logger) *StateSynchronizer {
	return &StateSynchronizer{
		shell:  sh,
		logger: logger,
	}
}

// HandleWindowOpened adopts a newly created host window into the registry.
func (s *StateSynchronizer) HandleWindowOpened(hostID uint32, space container.SpaceID) {
	id := s.shell.AdoptHostWindow(hostID, space)
	s.logger.Debug("host window opened",
		"host_id", hostID,
		"window", string(id),
		"space", string(space))
}

// HandleWindowClosed is called when a tracked host window is destroyed. The
// shell unregisters the window and purges its surfaces; untracked host ids
// are ignored.
func (s *StateSynchronizer) HandleWindowClosed(hostID uint32) {
	s.logger.Info("host window closed, cleaning up", "host_id", hostID)
	s.shell.HandleHostClosed(hostID)
}

// HandleWindowActivated marks the window tracking hostID as active.
func (s *StateSynchronizer) HandleWindowActivated(hostID uint32) {
	s.shell.ActivateByHost(hostID)
}
