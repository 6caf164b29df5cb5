package drag

import "github.com/1broseidon/tabdeck/internal/container"

// Operation is the immutable, validated result of a committed drag session.
// It only describes the move; applying it (list splice, persistence) is the
// tab-list consumer's job.
type Operation struct {
	Item      container.TabID
	From      container.Container
	FromIndex int
	To        container.Container
	ToIndex   int
	ToSpace   container.SpaceID
}

// MovingBetweenContainers reports whether the item leaves its origin
// container.
func (op Operation) MovingBetweenContainers() bool {
	return !op.From.Equal(op.To)
}

// IsReordering reports whether the item stays in its container but changes
// position.
func (op Operation) IsReordering() bool {
	return op.From.Equal(op.To) && op.FromIndex != op.ToIndex
}
