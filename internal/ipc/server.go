package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/runtimepath"
	"github.com/1broseidon/tabdeck/internal/shell"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	shell        *shell.Shell
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server driving the given shell.
func NewServer(sh *shell.Shell, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		shell:      sh,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandListTabs:
		return s.handleListTabs()
	case CommandMoveTab:
		return s.handleMoveTab(req.Payload)
	case CommandCloseTab:
		return s.handleCloseTab(req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(req.Payload)
	case CommandActivateWindow:
		return s.handleActivateWindow(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload asks the daemon to reload its configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	st := s.shell.Status()

	status := StatusData{
		Windows:       st.Windows,
		Tabs:          st.Tabs,
		Surfaces:      st.Surfaces,
		ActiveWindow:  string(st.ActiveWindow),
		Dragging:      st.Dragging,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleListWindows returns the live window contexts
func (s *Server) handleListWindows() *Response {
	active, _ := s.shell.ActiveWindow()

	windows := s.shell.Windows()
	infos := make([]WindowInfo, len(windows))
	for i, w := range windows {
		infos[i] = WindowInfo{
			ID:            string(w.ID),
			SelectedTab:   string(w.SelectedTab),
			SelectedSpace: string(w.SelectedSpace),
			HostID:        w.HostID,
			Active:        w.ID == active,
		}
	}

	resp, _ := NewOKResponse(WindowsData{Windows: infos})
	return resp
}

// handleListTabs returns every container's tab ordering
func (s *Server) handleListTabs() *Response {
	orderings := s.shell.Orderings()
	containers := make([]ContainerTabsInfo, len(orderings))
	for i, ct := range orderings {
		tabs := make([]string, len(ct.Tabs))
		for j, id := range ct.Tabs {
			tabs[j] = string(id)
		}
		containers[i] = ContainerTabsInfo{Container: ct.Container, Tabs: tabs}
	}

	resp, _ := NewOKResponse(TabsData{Containers: containers})
	return resp
}

func (s *Server) handleMoveTab(payload json.RawMessage) *Response {
	var req MoveTabPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	if req.TabID == "" {
		return NewErrorResponse("tab_id is required")
	}
	if req.Container.IsNone() {
		return NewErrorResponse("container is required")
	}

	op := s.shell.MoveTab(container.TabID(req.TabID), req.Container, req.Index, container.SpaceID(req.Space))
	result := MoveResultData{Moved: op != nil}
	if op != nil {
		result.MovingBetweenContainers = op.MovingBetweenContainers()
		result.IsReordering = op.IsReordering()
	}

	resp, _ := NewOKResponse(result)
	return resp
}

func (s *Server) handleCloseTab(payload json.RawMessage) *Response {
	var req CloseTabPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	if req.TabID == "" {
		return NewErrorResponse("tab_id is required")
	}

	s.shell.CloseTab(container.TabID(req.TabID))

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleCloseWindow(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	if req.WindowID == "" {
		return NewErrorResponse("window_id is required")
	}

	s.shell.CloseWindow(container.WindowID(req.WindowID))

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleActivateWindow(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid activate payload: %v", err))
	}
	if req.WindowID == "" {
		return NewErrorResponse("window_id is required")
	}

	s.shell.ActivateWindow(container.WindowID(req.WindowID))

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
