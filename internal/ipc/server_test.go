package ipc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/shell"
)

func newTestServer() (*Server, *shell.Shell) {
	sh := shell.NewShell(nil)
	srv := &Server{
		shell:      sh,
		startTime:  time.Now(),
		reloadChan: make(chan struct{}, 1),
	}
	return srv, sh
}

func dispatch(t *testing.T, srv *Server, cmd CommandType, payload interface{}) *Response {
	t.Helper()
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		req.Payload = data
	}
	return srv.handleCommand(req)
}

func TestGetStatus(t *testing.T) {
	srv, sh := newTestServer()
	sh.OpenWindow("s1")
	sh.OpenTab(container.Essentials(), "")

	resp := dispatch(t, srv, CommandGetStatus, nil)
	if resp.Status != "OK" {
		t.Fatalf("status = %s: %s", resp.Status, resp.Error)
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Windows != 1 || status.Tabs != 1 || !status.DaemonRunning {
		t.Errorf("status = %+v", status)
	}
}

func TestListWindowsMarksActive(t *testing.T) {
	srv, sh := newTestServer()
	sh.OpenWindow("s1")
	active := sh.OpenWindow("s2")

	resp := dispatch(t, srv, CommandListWindows, nil)
	if resp.Status != "OK" {
		t.Fatalf("status = %s: %s", resp.Status, resp.Error)
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("unmarshal windows: %v", err)
	}
	if len(data.Windows) != 2 {
		t.Fatalf("windows = %d, want 2", len(data.Windows))
	}
	for _, w := range data.Windows {
		if w.Active != (w.ID == string(active)) {
			t.Errorf("window %s active = %v", w.ID, w.Active)
		}
	}
}

func TestMoveTabOverIPC(t *testing.T) {
	srv, sh := newTestServer()
	tab := sh.OpenTab(container.Essentials(), "")
	sh.OpenTab(container.Essentials(), "")

	resp := dispatch(t, srv, CommandMoveTab, MoveTabPayload{
		TabID:     string(tab),
		Container: container.SpacePinned("s1"),
		Index:     0,
		Space:     "s1",
	})
	if resp.Status != "OK" {
		t.Fatalf("status = %s: %s", resp.Status, resp.Error)
	}

	var result MoveResultData
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result.Moved || !result.MovingBetweenContainers || result.IsReordering {
		t.Errorf("result = %+v", result)
	}

	if got := sh.Tabs(container.SpacePinned("s1")); len(got) != 1 || got[0] != tab {
		t.Errorf("target tabs = %v", got)
	}
}

func TestMoveTabValidation(t *testing.T) {
	srv, _ := newTestServer()

	tests := []struct {
		name    string
		payload MoveTabPayload
	}{
		{"missing tab id", MoveTabPayload{Container: container.Essentials()}},
		{"missing container", MoveTabPayload{TabID: "t1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := dispatch(t, srv, CommandMoveTab, tt.payload)
			if resp.Status != "ERROR" {
				t.Errorf("status = %s, want ERROR", resp.Status)
			}
		})
	}
}

func TestMoveOfUnknownTabReportsNotMoved(t *testing.T) {
	srv, _ := newTestServer()

	resp := dispatch(t, srv, CommandMoveTab, MoveTabPayload{
		TabID:     "ghost",
		Container: container.Essentials(),
	})
	if resp.Status != "OK" {
		t.Fatalf("status = %s: %s", resp.Status, resp.Error)
	}

	var result MoveResultData
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Moved {
		t.Error("unknown tab reported as moved")
	}
}

func TestCloseAndActivateWindow(t *testing.T) {
	srv, sh := newTestServer()
	w1 := sh.OpenWindow("s1")
	w2 := sh.OpenWindow("s2")

	resp := dispatch(t, srv, CommandActivateWindow, WindowPayload{WindowID: string(w1)})
	if resp.Status != "OK" {
		t.Fatalf("activate: %s", resp.Error)
	}
	if active, _ := sh.ActiveWindow(); active != w1 {
		t.Errorf("active = %s, want %s", active, w1)
	}

	resp = dispatch(t, srv, CommandCloseWindow, WindowPayload{WindowID: string(w2)})
	if resp.Status != "OK" {
		t.Fatalf("close: %s", resp.Error)
	}
	if len(sh.Windows()) != 1 {
		t.Errorf("windows = %d, want 1", len(sh.Windows()))
	}
}

func TestReloadNotifiesDaemon(t *testing.T) {
	srv, _ := newTestServer()

	resp := dispatch(t, srv, CommandReload, nil)
	if resp.Status != "OK" {
		t.Fatalf("reload: %s", resp.Error)
	}
	select {
	case <-srv.reloadChan:
	default:
		t.Error("reload did not signal the daemon")
	}
}

func TestUnknownCommand(t *testing.T) {
	srv, _ := newTestServer()
	resp := dispatch(t, srv, CommandType("BOGUS"), nil)
	if resp.Status != "ERROR" {
		t.Errorf("status = %s, want ERROR", resp.Status)
	}
}

func TestListTabsRoundTripsContainers(t *testing.T) {
	srv, sh := newTestServer()
	sh.OpenTab(container.Essentials(), "")
	sh.OpenTab(container.SpaceRegular("s1"), "")

	resp := dispatch(t, srv, CommandListTabs, nil)
	if resp.Status != "OK" {
		t.Fatalf("list tabs: %s", resp.Error)
	}

	var data TabsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("unmarshal tabs: %v", err)
	}
	if len(data.Containers) != 2 {
		t.Fatalf("containers = %d, want 2", len(data.Containers))
	}
	seen := make(map[string]bool)
	for _, ct := range data.Containers {
		seen[ct.Container.String()] = true
		if len(ct.Tabs) != 1 {
			t.Errorf("%s tabs = %v", ct.Container, ct.Tabs)
		}
	}
	if !seen["essentials"] || !seen["space_regular(s1)"] {
		t.Errorf("containers = %v", seen)
	}
}
