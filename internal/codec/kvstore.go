package codec

import (
	"strings"

	"github.com/arkilian/formstore/pkg/types"
	"go.uber.org/zap"
)

// FromKVStore converts a legacy key/value-store value to element-type form.
// Arrays and objects stay opaque text. Booleans stored as numbers are true
// when non-zero; stored as text they are true only for "true" in any case.
func (c *Codec) FromKVStore(n *types.Node, v any) (any, error) {
	if v == nil {
		return nullValue(n)
	}
	if s, ok := v.(string); ok && s == "" {
		return nil, emptyString(n)
	}

	switch n.Kind {
	case types.KindArray, types.KindObject:
		return toText(v), nil
	case types.KindBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			return strings.EqualFold(strings.TrimSpace(x), "true"), nil
		case []byte:
			return strings.EqualFold(strings.TrimSpace(string(x)), "true"), nil
		}
		if f, ok := toFloat(v); ok {
			return f != 0, nil
		}
		return toBool(v)
	case types.KindInteger:
		return toInteger(v)
	case types.KindNumber:
		return toNumber(v)
	case types.KindString, types.KindRowPath, types.KindConfigPath:
		return toText(v), nil
	default:
		c.logger.Warn("unrecognized JSON schema type treated as string",
			zap.String("type", n.TypeTag),
			zap.String("elementKey", n.ElementKey))
		return toText(v), nil
	}
}
