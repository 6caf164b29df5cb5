package shell

import (
	"sort"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/drag"
)

// TabLists holds the ordered tab ids per container. It is the tab-list
// collaborator consuming committed drag operations: it performs the actual
// splice and supplies counts for index clamping.
type TabLists struct {
	lists map[container.Container][]container.TabID
}

// NewTabLists creates an empty set of lists.
func NewTabLists() *TabLists {
	return &TabLists{lists: make(map[container.Container][]container.TabID)}
}

// Tabs returns a copy of the ordered tabs in a container.
func (t *TabLists) Tabs(c container.Container) []container.TabID {
	return append([]container.TabID(nil), t.lists[c]...)
}

// Count returns the number of tabs in a container.
func (t *TabLists) Count(c container.Container) int {
	return len(t.lists[c])
}

// Append adds a tab at the end of a container's list.
func (t *TabLists) Append(c container.Container, tab container.TabID) {
	if c.IsNone() || tab == "" {
		return
	}
	t.lists[c] = append(t.lists[c], tab)
}

// InsertAt inserts a tab at index, clamped to [0, len].
func (t *TabLists) InsertAt(c container.Container, tab container.TabID, index int) {
	if c.IsNone() || tab == "" {
		return
	}
	list := t.lists[c]
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	list = append(list, "")
	copy(list[index+1:], list[index:])
	list[index] = tab
	t.lists[c] = list
}

// Remove deletes a tab from a container and returns its former index.
func (t *TabLists) Remove(c container.Container, tab container.TabID) (int, bool) {
	list := t.lists[c]
	for i, id := range list {
		if id == tab {
			t.lists[c] = append(list[:i], list[i+1:]...)
			return i, true
		}
	}
	return -1, false
}

// Find locates a tab across all containers.
func (t *TabLists) Find(tab container.TabID) (container.Container, int, bool) {
	for c, list := range t.lists {
		for i, id := range list {
			if id == tab {
				return c, i, true
			}
		}
	}
	return container.None, -1, false
}

// Apply performs the list splice described by a committed drag operation:
// remove from the source container, insert at the target index. The target
// index is clamped against the destination list after removal, so an index
// past the end appends.
func (t *TabLists) Apply(op *drag.Operation) bool {
	if op == nil {
		return false
	}
	if _, ok := t.Remove(op.From, op.Item); !ok {
		return false
	}
	t.InsertAt(op.To, op.Item, op.ToIndex)
	return true
}

// ContainerTabs is one container's ordering, used for snapshots.
type ContainerTabs struct {
	Container container.Container
	Tabs      []container.TabID
}

// Orderings returns every non-empty container ordering, sorted by container
// string form for deterministic output.
func (t *TabLists) Orderings() []ContainerTabs {
	out := make([]ContainerTabs, 0, len(t.lists))
	for c, list := range t.lists {
		if len(list) == 0 {
			continue
		}
		out = append(out, ContainerTabs{
			Container: c,
			Tabs:      append([]container.TabID(nil), list...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Container.String() < out[j].Container.String()
	})
	return out
}
