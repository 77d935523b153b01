// Package schema flattens nested table definitions into an immutable model:
// a flat map from storage key to annotated schema node, plus an index from
// element path to storage key.
//
// A Model is built once per definition and never modified afterwards, so any
// number of goroutines may read it concurrently. Reloading a definition
// builds a new Model; see the registry package for swap-on-publish.
package schema

import (
	"github.com/arkilian/formstore/pkg/types"
)

// Model is the flattened form of a table definition.
type Model struct {
	nodes map[string]*types.Node
	order []string
	paths map[string]string
	roots []*types.Node
}

// Node returns the schema node stored under key.
func (m *Model) Node(key string) (*types.Node, bool) {
	n, ok := m.nodes[key]
	return n, ok
}

// KeyForPath returns the storage key of the data node whose element path is path.
func (m *Model) KeyForPath(path string) (string, bool) {
	k, ok := m.paths[path]
	return k, ok
}

// NodeForPath returns the data node whose element path is path.
func (m *Model) NodeForPath(path string) (*types.Node, bool) {
	k, ok := m.paths[path]
	if !ok {
		return nil, false
	}
	return m.nodes[k], true
}

// Keys returns every storage key in build order.
func (m *Model) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// RetainedKeys returns, in build order, the keys of nodes stored independently.
func (m *Model) RetainedKeys() []string {
	var out []string
	for _, k := range m.order {
		if m.nodes[k].IsUnitOfRetention() {
			out = append(out, k)
		}
	}
	return out
}

// Roots returns the top-level nodes in declaration order, instance metadata last.
func (m *Model) Roots() []*types.Node {
	out := make([]*types.Node, len(m.roots))
	copy(out, m.roots)
	return out
}

// Len returns the number of nodes in the flat key map.
func (m *Model) Len() int {
	return len(m.order)
}
