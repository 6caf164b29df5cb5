package container

import (
	"encoding/json"
	"fmt"
)

// TabID identifies a tab across windows and containers.
type TabID string

// WindowID identifies a top-level shell window.
type WindowID string

// SpaceID identifies a logical tab group ("space").
type SpaceID string

// Kind discriminates the container variants.
type Kind int

const (
	// KindNone means no container (e.g. before a drag target is known).
	KindNone Kind = iota
	// KindEssentials is the global pinned-favorites strip shared by all spaces.
	KindEssentials
	// KindSpacePinned is the pinned section of a specific space.
	KindSpacePinned
	// KindSpaceRegular is the regular tab list of a specific space.
	KindSpaceRegular
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindEssentials:
		return "essentials"
	case KindSpacePinned:
		return "space_pinned"
	case KindSpaceRegular:
		return "space_regular"
	default:
		return "unknown"
	}
}

// Container is a logical drop-zone tag. It is an immutable value type and
// carries no ownership of the tabs placed in it. Space is only meaningful
// for the space-scoped kinds.
type Container struct {
	Kind  Kind
	Space SpaceID
}

// None is the zero container.
var None = Container{Kind: KindNone}

// Essentials returns the global essentials container.
func Essentials() Container {
	return Container{Kind: KindEssentials}
}

// SpacePinned returns the pinned container for a space.
func SpacePinned(space SpaceID) Container {
	return Container{Kind: KindSpacePinned, Space: space}
}

// SpaceRegular returns the regular container for a space.
func SpaceRegular(space SpaceID) Container {
	return Container{Kind: KindSpaceRegular, Space: space}
}

// IsNone reports whether the container is the zero variant.
func (c Container) IsNone() bool {
	return c.Kind == KindNone
}

// Equal reports whether two containers name the same drop zone.
func (c Container) Equal(other Container) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case KindSpacePinned, KindSpaceRegular:
		return c.Space == other.Space
	default:
		return true
	}
}

func (c Container) String() string {
	switch c.Kind {
	case KindSpacePinned, KindSpaceRegular:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Space)
	default:
		return c.Kind.String()
	}
}

// containerJSON is the wire form used by the IPC and MCP surfaces and the
// ordering snapshot store.
type containerJSON struct {
	Kind  string  `json:"kind"`
	Space SpaceID `json:"space,omitempty"`
}

// MarshalJSON encodes the container with a string kind tag.
func (c Container) MarshalJSON() ([]byte, error) {
	return json.Marshal(containerJSON{Kind: c.Kind.String(), Space: c.Space})
}

// UnmarshalJSON decodes the string kind tag form.
func (c *Container) UnmarshalJSON(data []byte) error {
	var wire containerJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	kind, err := ParseKind(wire.Kind)
	if err != nil {
		return err
	}
	c.Kind = kind
	c.Space = ""
	if kind == KindSpacePinned || kind == KindSpaceRegular {
		c.Space = wire.Space
	}
	return nil
}

// ParseKind parses the string form produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "none", "":
		return KindNone, nil
	case "essentials":
		return KindEssentials, nil
	case "space_pinned":
		return KindSpacePinned, nil
	case "space_regular":
		return KindSpaceRegular, nil
	default:
		return KindNone, fmt.Errorf("unknown container kind %q", s)
	}
}
