package mcp

import "github.com/1broseidon/tabdeck/internal/container"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Windows       int    `json:"windows"`
	Tabs          int    `json:"tabs"`
	Surfaces      int    `json:"surfaces"`
	ActiveWindow  string `json:"active_window,omitempty"`
	Dragging      bool   `json:"dragging"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowInfo describes a single shell window.
type WindowInfo struct {
	ID            string `json:"id"`
	SelectedTab   string `json:"selected_tab,omitempty"`
	SelectedSpace string `json:"selected_space,omitempty"`
	Active        bool   `json:"active"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// ListTabsInput is the input for the list_tabs tool.
type ListTabsInput struct{}

// ContainerTabs is one container's ordered tab list.
type ContainerTabs struct {
	Container string   `json:"container"`
	Space     string   `json:"space,omitempty"`
	Tabs      []string `json:"tabs"`
}

// ListTabsOutput is the output for the list_tabs tool.
type ListTabsOutput struct {
	Containers []ContainerTabs `json:"containers"`
}

// MoveTabInput is the input for the move_tab tool.
type MoveTabInput struct {
	TabID     string `json:"tab_id" jsonschema:"required,ID of the tab to move"`
	Container string `json:"container" jsonschema:"required,Destination container kind: essentials, space_pinned or space_regular"`
	Space     string `json:"space,omitempty" jsonschema:"Space ID for space_pinned and space_regular destinations"`
	Index     int    `json:"index,omitempty" jsonschema:"Insertion index within the destination; clamped to the list bounds"`
}

// MoveTabOutput is the output for the move_tab tool.
type MoveTabOutput struct {
	Moved                   bool `json:"moved"`
	MovingBetweenContainers bool `json:"moving_between_containers"`
	IsReordering            bool `json:"is_reordering"`
}

// CloseTabInput is the input for the close_tab tool.
type CloseTabInput struct {
	TabID string `json:"tab_id" jsonschema:"required,ID of the tab to close"`
}

// CloseTabOutput is the output for the close_tab tool.
type CloseTabOutput struct {
	Closed bool `json:"closed"`
}

// parseTarget builds the destination container from the tool input.
func parseTarget(kind, space string) (container.Container, error) {
	k, err := container.ParseKind(kind)
	if err != nil {
		return container.None, err
	}
	switch k {
	case container.KindEssentials:
		return container.Essentials(), nil
	case container.KindSpacePinned:
		return container.SpacePinned(container.SpaceID(space)), nil
	case container.KindSpaceRegular:
		return container.SpaceRegular(container.SpaceID(space)), nil
	default:
		return container.None, errNoneContainer
	}
}
