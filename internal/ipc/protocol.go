package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/tabdeck/internal/container"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload         CommandType = "RELOAD"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandListWindows    CommandType = "LIST_WINDOWS"
	CommandListTabs       CommandType = "LIST_TABS"
	CommandMoveTab        CommandType = "MOVE_TAB"
	CommandCloseTab       CommandType = "CLOSE_TAB"
	CommandCloseWindow    CommandType = "CLOSE_WINDOW"
	CommandActivateWindow CommandType = "ACTIVATE_WINDOW"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Windows       int    `json:"windows"`
	Tabs          int    `json:"tabs"`
	Surfaces      int    `json:"surfaces"`
	ActiveWindow  string `json:"active_window,omitempty"`
	Dragging      bool   `json:"dragging"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// WindowInfo describes one shell window for LIST_WINDOWS
type WindowInfo struct {
	ID            string `json:"id"`
	SelectedTab   string `json:"selected_tab,omitempty"`
	SelectedSpace string `json:"selected_space,omitempty"`
	HostID        uint32 `json:"host_id,omitempty"`
	Active        bool   `json:"active,omitempty"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// ContainerTabsInfo is one container's ordering for LIST_TABS
type ContainerTabsInfo struct {
	Container container.Container `json:"container"`
	Tabs      []string            `json:"tabs"`
}

// TabsData represents the data returned by LIST_TABS
type TabsData struct {
	Containers []ContainerTabsInfo `json:"containers"`
}

// MoveTabPayload represents the payload for MOVE_TAB
type MoveTabPayload struct {
	TabID     string              `json:"tab_id"`
	Container container.Container `json:"container"`
	Index     int                 `json:"index"`
	Space     string              `json:"space,omitempty"`
}

// MoveResultData represents the data returned by MOVE_TAB
type MoveResultData struct {
	Moved                   bool `json:"moved"`
	MovingBetweenContainers bool `json:"moving_between_containers,omitempty"`
	IsReordering            bool `json:"is_reordering,omitempty"`
}

// CloseTabPayload represents the payload for CLOSE_TAB
type CloseTabPayload struct {
	TabID string `json:"tab_id"`
}

// WindowPayload represents the payload for CLOSE_WINDOW and ACTIVATE_WINDOW
type WindowPayload struct {
	WindowID string `json:"window_id"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
