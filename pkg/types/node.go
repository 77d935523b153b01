package types

import "strings"

// Node is a flattened, fully annotated schema node. Nodes are owned by the
// model that built them and must be treated as read-only.
type Node struct {
	// Kind is the parsed type; TypeTag keeps the raw tag for diagnostics
	Kind    Kind
	TypeTag string

	ElementType ElementType

	// Properties holds object children in declaration order
	Properties []*Node

	// Items is the element node of an array
	Items *Node

	ElementKey  string
	ElementPath string
	ElementName string
	ElementSet  ElementSet

	IsNotNullable      bool
	IsSessionVariable  bool
	NotUnitOfRetention bool

	// ListChildElementKeys holds the storage keys of the immediate children
	ListChildElementKeys []string
}

// IsUnitOfRetention reports whether the node's value is stored independently.
func (n *Node) IsUnitOfRetention() bool {
	return !n.NotUnitOfRetention
}

// HasProperties reports whether the node is an object with declared children.
func (n *Node) HasProperties() bool {
	return len(n.Properties) > 0
}

// Property returns the named child of an object node.
func (n *Node) Property(name string) (*Node, bool) {
	for _, p := range n.Properties {
		if p.ElementName == name {
			return p, true
		}
	}
	return nil, false
}

// NewLeaf returns an unattached node for a bare type tag. It serves values
// that arrive with only a type tag, as in the legacy key/value store.
func NewLeaf(typeTag string) *Node {
	tag := strings.TrimSpace(typeTag)
	return &Node{
		Kind:    ParseKind(tag),
		TypeTag: tag,
	}
}
