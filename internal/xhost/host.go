package xhost

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/tabdeck/internal/container"
)

// Events receives host window lifecycle notifications. The daemon's
// state synchronizer implements it.
type Events interface {
	HandleWindowOpened(hostID uint32, space container.SpaceID)
	HandleWindowClosed(hostID uint32)
	HandleWindowActivated(hostID uint32)
}

// Host watches top-level X11 windows whose WM_CLASS matches the
// configured shell classes and forwards open/close/activate events.
// It diffs _NET_CLIENT_LIST on property change rather than tracking
// per-window events, so a window that appears and dies between two
// notifications is simply never reported.
type Host struct {
	conn    *Connection
	classes []string
	events  Events
	logger  *slog.Logger

	mu         sync.Mutex
	known      map[uint32]bool
	lastActive uint32
}

// NewHost creates a host over an established X11 connection.
func NewHost(conn *Connection, classes []string, events Events, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		conn:    conn,
		classes: classes,
		events:  events,
		logger:  logger,
		known:   make(map[uint32]bool),
	}
}

// Watch subscribes to root window property changes and performs an
// initial client sync so pre-existing windows are adopted.
func (h *Host) Watch() error {
	root := xwindow.New(h.conn.XUtil, h.conn.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		switch name {
		case "_NET_CLIENT_LIST":
			h.syncClients()
		case "_NET_ACTIVE_WINDOW":
			h.syncActive()
		}
	}).Connect(h.conn.XUtil, h.conn.Root)

	h.syncClients()
	h.syncActive()
	return nil
}

// Run enters the X event loop. Blocks until Stop or connection loss.
func (h *Host) Run() {
	h.conn.EventLoop()
}

// Stop exits the event loop.
func (h *Host) Stop() {
	h.conn.Quit()
}

// ListWindows returns the host IDs of all live matching windows. It
// serves the reconciler's host listing.
func (h *Host) ListWindows() ([]uint32, error) {
	clients, err := ewmh.ClientListGet(h.conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	var ids []uint32
	for _, win := range clients {
		if h.matches(win) {
			ids = append(ids, uint32(win))
		}
	}
	return ids, nil
}

// Alive reports whether the host window still exists. It serves the
// registry's liveness probe; a failed attribute query means gone.
func (h *Host) Alive(hostID uint32) bool {
	_, err := xproto.GetWindowAttributes(h.conn.XUtil.Conn(), xproto.Window(hostID)).Reply()
	return err == nil
}

func (h *Host) syncClients() {
	current, err := h.ListWindows()
	if err != nil {
		h.logger.Warn("client list sync failed", "error", err)
		return
	}

	h.mu.Lock()
	opened, closed := diffClients(h.known, current)
	for _, id := range closed {
		delete(h.known, id)
	}
	for _, id := range opened {
		h.known[id] = true
	}
	h.mu.Unlock()

	for _, id := range closed {
		h.events.HandleWindowClosed(id)
	}
	for _, id := range opened {
		h.events.HandleWindowOpened(id, h.spaceFor(id))
	}
}

func (h *Host) syncActive() {
	win, err := ewmh.ActiveWindowGet(h.conn.XUtil)
	if err != nil || win == 0 {
		return
	}
	id := uint32(win)

	h.mu.Lock()
	tracked := h.known[id]
	changed := tracked && h.lastActive != id
	if changed {
		h.lastActive = id
	}
	h.mu.Unlock()

	if changed {
		h.events.HandleWindowActivated(id)
	}
}

// spaceFor maps a window's virtual desktop to a space ID. Sticky
// windows (on all desktops) land in the empty space.
func (h *Host) spaceFor(hostID uint32) container.SpaceID {
	desktop, err := ewmh.WmDesktopGet(h.conn.XUtil, xproto.Window(hostID))
	if err != nil || desktop == 0xFFFFFFFF {
		return ""
	}
	return container.SpaceID(fmt.Sprintf("desktop-%d", desktop))
}

func (h *Host) matches(win xproto.Window) bool {
	class, err := icccm.WmClassGet(h.conn.XUtil, win)
	if err != nil || class == nil {
		return false
	}
	return matchClass(class.Instance, class.Class, h.classes)
}

// matchClass reports whether either WM_CLASS component equals one of
// the configured shell classes.
func matchClass(instance, class string, classes []string) bool {
	for _, c := range classes {
		if instance == c || class == c {
			return true
		}
	}
	return false
}

// diffClients splits the current client list against the known set.
// The caller holds the lock.
func diffClients(known map[uint32]bool, current []uint32) (opened, closed []uint32) {
	seen := make(map[uint32]bool, len(current))
	for _, id := range current {
		seen[id] = true
		if !known[id] {
			opened = append(opened, id)
		}
	}
	for id := range known {
		if !seen[id] {
			closed = append(closed, id)
		}
	}
	return opened, closed
}
