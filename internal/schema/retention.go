package schema

import "github.com/arkilian/formstore/pkg/types"

// markUnitOfRetention decides which nodes are stored independently. Every
// descendant of an array is folded into the array's serialized value, and
// every non-array node with children is serialized as a single blob.
func markUnitOfRetention(nodes map[string]*types.Node, order []string) {
	for _, key := range order {
		n := nodes[key]
		if n.NotUnitOfRetention || n.Kind != types.KindArray {
			continue
		}
		frontier := n.ListChildElementKeys
		for len(frontier) != 0 {
			var next []string
			for _, k := range frontier {
				d, ok := nodes[k]
				if !ok || d.NotUnitOfRetention {
					continue
				}
				d.NotUnitOfRetention = true
				next = append(next, d.ListChildElementKeys...)
			}
			frontier = next
		}
	}

	for _, key := range order {
		n := nodes[key]
		if n.NotUnitOfRetention || n.Kind == types.KindArray {
			continue
		}
		if len(n.ListChildElementKeys) != 0 {
			n.NotUnitOfRetention = true
		}
	}
}
