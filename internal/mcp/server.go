package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/ipc"
)

const (
	ServerName    = "tabdeck"
	ServerVersion = "0.1.0"
)

var errNoneContainer = errors.New("container must be one of: essentials, space_pinned, space_regular")

// daemonClient is the slice of the IPC client the tools need. Tests
// substitute a fake so no daemon socket is required.
type daemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	ListTabs() (*ipc.TabsData, error)
	MoveTab(tabID string, target container.Container, index int, space string) (*ipc.MoveResultData, error)
	CloseTab(tabID string) error
}

// Server exposes the running daemon's tab shell to MCP clients over stdio.
// Every tool is a thin adapter around the daemon IPC protocol.
type Server struct {
	mcpServer *mcpsdk.Server
	client    daemonClient
}

// NewServer creates an MCP server talking to the local daemon socket.
func NewServer() *Server {
	return newServer(ipc.NewClient())
}

func newServer(client daemonClient) *Server {
	s := &Server{client: client}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Get daemon status: window, tab and surface counts, the active window, whether a drag gesture is in progress, and uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the live shell windows with their selected tab, selected space, and which one is active.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_tabs",
		Description: "List every container's ordered tab list. Containers are the global essentials strip plus per-space pinned and regular sections.",
	}, s.handleListTabs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_tab",
		Description: "Move a tab to a position in a destination container. Space containers need a space ID; the index is clamped to the destination list. Moving a tab to its current position is a no-op and reports moved=false.",
	}, s.handleMoveTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_tab",
		Description: "Close a tab. Its render surfaces are disposed in every window currently showing it.",
	}, s.handleCloseTab)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		Windows:       status.Windows,
		Tabs:          status.Tabs,
		Surfaces:      status.Surfaces,
		ActiveWindow:  status.ActiveWindow,
		Dragging:      status.Dragging,
		UptimeSeconds: status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(data.Windows))}
	for _, w := range data.Windows {
		out.Windows = append(out.Windows, WindowInfo{
			ID:            w.ID,
			SelectedTab:   w.SelectedTab,
			SelectedSpace: w.SelectedSpace,
			Active:        w.Active,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListTabs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListTabsInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	data, err := s.client.ListTabs()
	if err != nil {
		return nil, ListTabsOutput{}, err
	}
	out := ListTabsOutput{Containers: make([]ContainerTabs, 0, len(data.Containers))}
	for _, ct := range data.Containers {
		out.Containers = append(out.Containers, ContainerTabs{
			Container: ct.Container.Kind.String(),
			Space:     string(ct.Container.Space),
			Tabs:      ct.Tabs,
		})
	}
	return nil, out, nil
}

func (s *Server) handleMoveTab(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveTabInput) (*mcpsdk.CallToolResult, MoveTabOutput, error) {
	if args.TabID == "" {
		return nil, MoveTabOutput{}, fmt.Errorf("tab_id is required")
	}
	target, err := parseTarget(args.Container, args.Space)
	if err != nil {
		return nil, MoveTabOutput{}, err
	}
	if target.Kind != container.KindEssentials && target.Space == "" {
		return nil, MoveTabOutput{}, fmt.Errorf("space is required for %s destinations", target.Kind)
	}

	result, err := s.client.MoveTab(args.TabID, target, args.Index, args.Space)
	if err != nil {
		return nil, MoveTabOutput{}, err
	}
	return nil, MoveTabOutput{
		Moved:                   result.Moved,
		MovingBetweenContainers: result.MovingBetweenContainers,
		IsReordering:            result.IsReordering,
	}, nil
}

func (s *Server) handleCloseTab(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseTabInput) (*mcpsdk.CallToolResult, CloseTabOutput, error) {
	if args.TabID == "" {
		return nil, CloseTabOutput{}, fmt.Errorf("tab_id is required")
	}
	if err := s.client.CloseTab(args.TabID); err != nil {
		return nil, CloseTabOutput{}, err
	}
	return nil, CloseTabOutput{Closed: true}, nil
}
