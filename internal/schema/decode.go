package schema

import (
	"fmt"

	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/pkg/types"
	"gopkg.in/yaml.v3"
)

// DecodeDefinition parses a table definition: a mapping from top-level field
// name to schema node. YAML and JSON documents are both accepted. Property
// order is preserved as written, since it fixes the order of child keys.
func DecodeDefinition(data []byte) ([]types.Property, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCategorySchema, ferrors.CodeMalformedDefinition,
			"failed to parse definition", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ferrors.NewSchemaError(ferrors.CodeMalformedDefinition, "empty definition")
	}
	return decodeProperties(doc.Content[0], "")
}

// DecodeAndBuild parses a definition and flattens it.
func DecodeAndBuild(data []byte, opts ...Option) (*Model, error) {
	fields, err := DecodeDefinition(data)
	if err != nil {
		return nil, err
	}
	return Build(fields, opts...)
}

func decodeProperties(node *yaml.Node, path string) ([]types.Property, error) {
	if node.Kind != yaml.MappingNode {
		return nil, malformed(node, path, "expected a mapping of element names")
	}
	props := make([]types.Property, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		childPath := name
		if path != "" {
			childPath = path + "." + name
		}
		def, err := decodeDefinition(node.Content[i+1], childPath)
		if err != nil {
			return nil, err
		}
		props = append(props, types.Property{Name: name, Definition: def})
	}
	return props, nil
}

func decodeDefinition(node *yaml.Node, path string) (*types.Definition, error) {
	if node.Kind != yaml.MappingNode {
		return nil, malformed(node, path, "expected a schema node")
	}
	def := &types.Definition{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		field, value := node.Content[i].Value, node.Content[i+1]
		var err error
		switch field {
		case "type":
			err = value.Decode(&def.Type)
		case "elementType":
			err = value.Decode(&def.ElementType)
		case "elementKey":
			err = value.Decode(&def.ElementKey)
		case "isNotNullable":
			err = value.Decode(&def.IsNotNullable)
		case "isSessionVariable":
			err = value.Decode(&def.IsSessionVariable)
		case "items":
			def.Items, err = decodeDefinition(value, path+".items")
		case "properties":
			def.Properties, err = decodeProperties(value, path)
		default:
			// display and prompt attributes are not part of the storage schema
		}
		if err != nil {
			if ferrors.IsSchemaError(err) {
				return nil, err
			}
			return nil, ferrors.Wrap(ferrors.ErrCategorySchema, ferrors.CodeMalformedDefinition,
				fmt.Sprintf("bad %s for '%s'", field, path), err)
		}
	}
	return def, nil
}

func malformed(node *yaml.Node, path, msg string) error {
	return ferrors.NewSchemaError(ferrors.CodeMalformedDefinition,
		fmt.Sprintf("%s at line %d", msg, node.Line)).
		WithDetails(map[string]interface{}{"elementPath": path})
}
