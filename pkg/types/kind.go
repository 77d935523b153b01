// Package types provides the schema vocabulary shared by every formstore component.
package types

import "strings"

// Kind is the storage kind of a schema node.
type Kind int

const (
	// KindUnknown is any type tag this version does not recognize.
	// Values of unknown kinds are carried as text.
	KindUnknown Kind = iota
	KindArray
	KindObject
	KindString
	KindBoolean
	KindInteger
	KindNumber
	KindRowPath
	KindConfigPath
)

var kindTags = map[Kind]string{
	KindArray:      "array",
	KindObject:     "object",
	KindString:     "string",
	KindBoolean:    "boolean",
	KindInteger:    "integer",
	KindNumber:     "number",
	KindRowPath:    "rowpath",
	KindConfigPath: "configpath",
}

// ParseKind maps a schema type tag onto its Kind. Unrecognized tags map to KindUnknown.
func ParseKind(tag string) Kind {
	tag = strings.TrimSpace(tag)
	for k, t := range kindTags {
		if t == tag {
			return k
		}
	}
	return KindUnknown
}

// String returns the schema type tag for the kind.
func (k Kind) String() string {
	if t, ok := kindTags[k]; ok {
		return t
	}
	return "unknown"
}

// ElementType refines an object node.
type ElementType int

const (
	// ElementTypeNone marks a structured or opaque object.
	ElementTypeNone ElementType = iota
	ElementTypeDate
	ElementTypeDateTime
	ElementTypeTime
)

// ParseElementType maps an elementType tag onto its ElementType.
// Any tag other than date, dateTime or time leaves the object structured or opaque.
func ParseElementType(tag string) ElementType {
	switch strings.TrimSpace(tag) {
	case "date":
		return ElementTypeDate
	case "dateTime":
		return ElementTypeDateTime
	case "time":
		return ElementTypeTime
	default:
		return ElementTypeNone
	}
}

// String returns the elementType tag, or "" for ElementTypeNone.
func (e ElementType) String() string {
	switch e {
	case ElementTypeDate:
		return "date"
	case ElementTypeDateTime:
		return "dateTime"
	case ElementTypeTime:
		return "time"
	default:
		return ""
	}
}

// IsTimestamp reports whether values are full date-time stamps.
func (e ElementType) IsTimestamp() bool {
	return e == ElementTypeDate || e == ElementTypeDateTime
}

// ElementSet names the tree a node's value belongs to.
type ElementSet string

const (
	ElementSetData             ElementSet = "data"
	ElementSetInstanceMetadata ElementSet = "instanceMetadata"
)
