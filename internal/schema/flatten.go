package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arkilian/formstore/internal/elementpath"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/pkg/types"
)

// Option configures a build.
type Option func(*builder)

// WithInstanceMetadata adds the instance metadata columns to the model.
func WithInstanceMetadata() Option {
	return func(b *builder) {
		b.withMetadata = true
	}
}

// metadataColumns are the system columns carried alongside every row. Their
// element path is the key without its leading underscore.
var metadataColumns = []struct {
	key         string
	typeTag     string
	elementType types.ElementType
	notNullable bool
}{
	{"_id", "string", types.ElementTypeNone, true},
	{"_row_etag", "string", types.ElementTypeNone, false},
	{"_savepoint_timestamp", "object", types.ElementTypeDateTime, false},
	{"_savepoint_type", "string", types.ElementTypeNone, false},
	{"_form_id", "string", types.ElementTypeNone, false},
	{"_locale", "string", types.ElementTypeNone, false},
}

type builder struct {
	withMetadata bool
	nodes        map[string]*types.Node
	order        []string
	paths        map[string]string
}

// Flatten builds a model from a single root definition named name.
func Flatten(name string, def *types.Definition, opts ...Option) (*Model, error) {
	return Build([]types.Property{{Name: name, Definition: def}}, opts...)
}

// Build flattens every top-level field into one model. Each field is a root
// whose element path is its name. Any error is a schema error and no model
// is returned.
func Build(fields []types.Property, opts ...Option) (*Model, error) {
	b := &builder{
		nodes: make(map[string]*types.Node),
		paths: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}

	roots := make([]*types.Node, 0, len(fields))
	for _, f := range fields {
		n, err := b.flatten("", f.Name, f.Definition, false)
		if err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}

	if b.withMetadata {
		for _, c := range metadataColumns {
			if _, exists := b.nodes[c.key]; exists {
				return nil, ferrors.NewSchemaError(ferrors.CodeDuplicateElementKey,
					fmt.Sprintf("elementKey %q is reserved for instance metadata", c.key))
			}
			n := &types.Node{
				Kind:          types.ParseKind(c.typeTag),
				TypeTag:       c.typeTag,
				ElementType:   c.elementType,
				ElementKey:    c.key,
				ElementName:   strings.TrimPrefix(c.key, "_"),
				ElementPath:   strings.TrimPrefix(c.key, "_"),
				ElementSet:    types.ElementSetInstanceMetadata,
				IsNotNullable: c.notNullable,
			}
			b.nodes[c.key] = n
			b.order = append(b.order, c.key)
			roots = append(roots, n)
		}
	}

	markUnitOfRetention(b.nodes, b.order)

	return &Model{
		nodes: b.nodes,
		order: b.order,
		paths: b.paths,
		roots: roots,
	}, nil
}

func (b *builder) flatten(prefix, name string, def *types.Definition, session bool) (*types.Node, error) {
	path := name
	if prefix != "" {
		path = prefix + elementpath.Separator + name
	}
	if def == nil {
		return nil, ferrors.NewSchemaError(ferrors.CodeMalformedDefinition,
			fmt.Sprintf("no definition for '%s'", path))
	}

	key := def.ElementKey
	if err := b.checkKey(key, path); err != nil {
		return nil, err
	}
	if !elementpath.IsValid(path) {
		return nil, ferrors.NewSchemaError(ferrors.CodeInvalidElementPath,
			fmt.Sprintf("invalid element path '%s'", path)).
			WithDetails(map[string]interface{}{"elementKey": key})
	}
	if other, dup := b.paths[path]; dup {
		return nil, ferrors.NewSchemaError(ferrors.CodeInvalidElementPath,
			fmt.Sprintf("element path '%s' is already used by elementKey %q", path, other))
	}

	session = session || def.IsSessionVariable
	n := &types.Node{
		Kind:              def.Kind(),
		TypeTag:           strings.TrimSpace(def.Type),
		ElementType:       types.ParseElementType(def.ElementType),
		ElementKey:        key,
		ElementPath:       path,
		ElementName:       name,
		ElementSet:        types.ElementSetData,
		IsNotNullable:     def.IsNotNullable,
		IsSessionVariable: session,
	}
	b.nodes[key] = n
	b.order = append(b.order, key)
	b.paths[path] = key

	switch n.Kind {
	case types.KindArray:
		if def.Items == nil {
			return nil, ferrors.NewSchemaError(ferrors.CodeMalformedDefinition,
				fmt.Sprintf("array '%s' does not define items", path)).
				WithDetails(map[string]interface{}{"elementPath": path, "elementKey": key})
		}
		child, err := b.flatten(path, "items", def.Items, session)
		if err != nil {
			return nil, err
		}
		n.Items = child
		n.ListChildElementKeys = []string{child.ElementKey}
	case types.KindObject:
		n.ListChildElementKeys = make([]string, 0, len(def.Properties))
		for _, p := range def.Properties {
			child, err := b.flatten(path, p.Name, p.Definition, session)
			if err != nil {
				return nil, err
			}
			n.Properties = append(n.Properties, child)
			n.ListChildElementKeys = append(n.ListChildElementKeys, child.ElementKey)
		}
	}

	return n, nil
}

func (b *builder) checkKey(key, path string) error {
	details := map[string]interface{}{"elementPath": path, "elementKey": key}
	switch {
	case key == "":
		return ferrors.NewSchemaError(ferrors.CodeMissingElementKey,
			fmt.Sprintf("elementKey is not defined for '%s'", path)).WithDetails(details)
	case utf8.RuneCountInString(key) > elementpath.MaxLength:
		return ferrors.NewSchemaError(ferrors.CodeElementKeyTooLong,
			fmt.Sprintf("supplied elementKey is longer than %d characters", elementpath.MaxLength)).WithDetails(details)
	case strings.HasPrefix(key, "_"):
		return ferrors.NewSchemaError(ferrors.CodeElementKeyUnderscore,
			"supplied elementKey starts with underscore").WithDetails(details)
	case elementpath.IsReserved(key):
		return ferrors.NewSchemaError(ferrors.CodeElementKeyReserved,
			"supplied elementKey is a reserved name").WithDetails(details)
	}
	if other, exists := b.nodes[key]; exists {
		return ferrors.NewSchemaError(ferrors.CodeDuplicateElementKey,
			fmt.Sprintf("supplied elementKey is already used by '%s'", other.ElementPath)).WithDetails(details)
	}
	return nil
}
