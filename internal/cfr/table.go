package cfr

import (
	"fmt"
	"sort"
)

// NodeTable maps information-set keys to their nodes. Nodes are created
// lazily on first visit and live for the owning trainer's lifetime. The table
// is single-owner and not safe for concurrent use.
type NodeTable struct {
	nodes map[string]*Node
}

// NewNodeTable returns an empty table.
func NewNodeTable() *NodeTable {
	return &NodeTable{nodes: make(map[string]*Node)}
}

// GetOrCreate returns the node for key, creating it with the given action
// count on first visit. A revisit with a different action count is a game
// implementation bug and panics.
func (t *NodeTable) GetOrCreate(key string, actions int) *Node {
	if n, ok := t.nodes[key]; ok {
		if n.NumActions() != actions {
			panic(fmt.Sprintf("cfr: info set %q seen with %d actions, previously %d",
				key, actions, n.NumActions()))
		}
		return n
	}
	n := NewNode(actions)
	t.nodes[key] = n
	return n
}

// Get returns the node for key if one exists.
func (t *NodeTable) Get(key string) (*Node, bool) {
	n, ok := t.nodes[key]
	return n, ok
}

// Len returns the number of information sets tracked.
func (t *NodeTable) Len() int { return len(t.nodes) }

// Keys returns all information-set keys in sorted order, so that iteration
// and persistence are deterministic.
func (t *NodeTable) Keys() []string {
	keys := make([]string, 0, len(t.nodes))
	for k := range t.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
