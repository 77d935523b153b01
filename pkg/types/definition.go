package types

// Definition is an unannotated schema node as authored in a table definition.
// Definitions are inputs only; flattening never modifies them.
type Definition struct {
	// Type is the raw type tag: array, object, string, boolean, integer,
	// number, rowpath, configpath
	Type string `json:"type" yaml:"type"`

	// ElementType refines object nodes: date, dateTime, time
	ElementType string `json:"elementType,omitempty" yaml:"elementType,omitempty"`

	// ElementKey is the caller-supplied storage key
	ElementKey string `json:"elementKey" yaml:"elementKey"`

	// Properties lists the children of an object, in declaration order
	Properties []Property `json:"-" yaml:"-"`

	// Items is the element node of an array
	Items *Definition `json:"items,omitempty" yaml:"items,omitempty"`

	IsNotNullable     bool `json:"isNotNullable,omitempty" yaml:"isNotNullable,omitempty"`
	IsSessionVariable bool `json:"isSessionVariable,omitempty" yaml:"isSessionVariable,omitempty"`
}

// Property is one named child of an object definition.
type Property struct {
	Name       string
	Definition *Definition
}

// Kind returns the parsed kind of the definition's type tag.
func (d *Definition) Kind() Kind {
	return ParseKind(d.Type)
}
