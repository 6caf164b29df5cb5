package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send request
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	req := &Request{
		Command: CommandReload,
	}

	_, err := c.sendRequest(req)
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	req := &Request{
		Command: CommandGetStatus,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// ListWindows retrieves the live window contexts
func (c *Client) ListWindows() (*WindowsData, error) {
	req := &Request{
		Command: CommandListWindows,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}

	return &data, nil
}

// ListTabs retrieves every container's tab ordering
func (c *Client) ListTabs() (*TabsData, error) {
	req := &Request{
		Command: CommandListTabs,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var data TabsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse tabs data: %w", err)
	}

	return &data, nil
}

// MoveTab moves a tab to a container position
func (c *Client) MoveTab(tabID string, target container.Container, index int, space string) (*MoveResultData, error) {
	payload, err := json.Marshal(MoveTabPayload{
		TabID:     tabID,
		Container: target,
		Index:     index,
		Space:     space,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal move payload: %w", err)
	}

	req := &Request{
		Command: CommandMoveTab,
		Payload: payload,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var result MoveResultData
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse move result: %w", err)
	}

	return &result, nil
}

// CloseTab closes a tab everywhere it is shown
func (c *Client) CloseTab(tabID string) error {
	payload, err := json.Marshal(CloseTabPayload{TabID: tabID})
	if err != nil {
		return fmt.Errorf("failed to marshal close payload: %w", err)
	}

	req := &Request{
		Command: CommandCloseTab,
		Payload: payload,
	}

	_, err = c.sendRequest(req)
	return err
}

// CloseWindow closes a shell window
func (c *Client) CloseWindow(windowID string) error {
	payload, err := json.Marshal(WindowPayload{WindowID: windowID})
	if err != nil {
		return fmt.Errorf("failed to marshal close payload: %w", err)
	}

	req := &Request{
		Command: CommandCloseWindow,
		Payload: payload,
	}

	_, err = c.sendRequest(req)
	return err
}

// ActivateWindow marks a shell window active
func (c *Client) ActivateWindow(windowID string) error {
	payload, err := json.Marshal(WindowPayload{WindowID: windowID})
	if err != nil {
		return fmt.Errorf("failed to marshal activate payload: %w", err)
	}

	req := &Request{
		Command: CommandActivateWindow,
		Payload: payload,
	}

	_, err = c.sendRequest(req)
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
