// Package codec converts schema-typed values among the four representations
// used across formstore:
//
//   - interface form: values crossing the external data-access boundary;
//     native scalars and structures, with dates as serialized text
//   - serialized form: what a column physically holds; JSON text for
//     composite, boolean, integer and number columns, plain text for string
//     and path columns, fixed text formats for dates and times; levels below
//     the column are native structures
//   - key/value-store form: the legacy text-typed representation
//   - element-type form: the canonical in-memory tree; time.Time for dates
//     and times, int64 for integers, float64 for numbers
//
// Every conversion rejects the empty string, rejects a null value for a
// non-nullable node, and rejects a non-list where a list is required. All
// conversion failures are value errors scoped to the single call.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/pkg/types"
	"go.uber.org/zap"
)

type direction int

const (
	fromInterface direction = iota
	toInterface
	fromSerialized
	toSerialized
)

// canonical reports whether the direction produces element-type form.
func (d direction) canonical() bool {
	return d == fromInterface || d == fromSerialized
}

// Codec performs type-directed value conversion. It holds no per-call state
// and is safe for concurrent use.
type Codec struct {
	logger *zap.Logger
}

// New creates a codec. A nil logger discards diagnostics.
func New(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{logger: logger}
}

// FromInterface converts an interface-form value to element-type form.
func (c *Codec) FromInterface(n *types.Node, v any) (any, error) {
	return c.convert(n, v, fromInterface, false)
}

// ToInterface converts an element-type value to interface form.
func (c *Codec) ToInterface(n *types.Node, v any) (any, error) {
	return c.convert(n, v, toInterface, false)
}

// FromSerialized converts a stored column value to element-type form.
func (c *Codec) FromSerialized(n *types.Node, v any) (any, error) {
	return c.convert(n, v, fromSerialized, true)
}

// ToSerialized converts an element-type value to the form stored in its column.
func (c *Codec) ToSerialized(n *types.Node, v any) (any, error) {
	return c.convert(n, v, toSerialized, true)
}

func (c *Codec) convert(n *types.Node, v any, dir direction, toplevel bool) (any, error) {
	if v == nil {
		return nullValue(n)
	}
	if s, ok := v.(string); ok && s == "" {
		return nil, emptyString(n)
	}

	// serialized columns of these kinds hold JSON text
	parse := dir == fromSerialized && toplevel && holdsJSON(n)
	if parse {
		if s, ok := v.(string); ok {
			decoded, err := decodeJSON(s)
			if err != nil {
				return nil, ferrors.Wrap(ferrors.ErrCategoryValue, ferrors.CodeUnrecognizedShape,
					fmt.Sprintf("column %q does not hold JSON", n.ElementKey), err)
			}
			if decoded == nil {
				return nullValue(n)
			}
			v = decoded
		}
	}

	out, err := c.convertValue(n, v, dir)
	if err != nil {
		return nil, err
	}

	if dir == toSerialized && toplevel && holdsJSON(n) {
		text, err := json.Marshal(out)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCategoryValue, ferrors.CodeUnrecognizedShape,
				fmt.Sprintf("cannot serialize value for %q", n.ElementKey), err)
		}
		return string(text), nil
	}
	return out, nil
}

func (c *Codec) convertValue(n *types.Node, v any, dir direction) (any, error) {
	switch n.Kind {
	case types.KindArray:
		list, ok := toList(v)
		if !ok {
			return nil, ferrors.NewValueError(ferrors.CodeNotAList,
				fmt.Sprintf("unexpected non-array value for %q", n.ElementKey))
		}
		if n.Items == nil {
			return list, nil
		}
		refined := make([]any, 0, len(list))
		for _, item := range list {
			iv, err := c.convert(n.Items, item, dir, false)
			if err != nil {
				return nil, err
			}
			refined = append(refined, iv)
		}
		return refined, nil

	case types.KindObject:
		switch {
		case n.ElementType.IsTimestamp():
			return convertTimestamp(v, dir)
		case n.ElementType == types.ElementTypeTime:
			return convertTimeOfDay(v, dir)
		case n.HasProperties():
			m, ok := toMap(v)
			if !ok {
				return nil, ferrors.NewValueError(ferrors.CodeUnrecognizedShape,
					fmt.Sprintf("unexpected non-object value for %q", n.ElementKey))
			}
			// undeclared properties are dropped
			refined := make(map[string]any, len(n.Properties))
			for _, p := range n.Properties {
				pv, present := m[p.ElementName]
				if !present || pv == nil {
					continue
				}
				out, err := c.convert(p, pv, dir, false)
				if err != nil {
					return nil, err
				}
				refined[p.ElementName] = out
			}
			return refined, nil
		default:
			return v, nil
		}

	case types.KindBoolean:
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

func convertTimestamp(v any, dir direction) (any, error) {
	switch x := v.(type) {
	case string:
		if dir.canonical() {
			return ParseTimestamp(x)
		}
		return x, nil
	case time.Time:
		if dir.canonical() {
			return x.UTC().Truncate(time.Millisecond), nil
		}
		return FormatTimestamp(x), nil
	}
	return nil, ferrors.NewValueError(ferrors.CodeBadDateTime,
		fmt.Sprintf("unexpected value %v for date type", v))
}

func convertTimeOfDay(v any, dir direction) (any, error) {
	switch x := v.(type) {
	case string:
		if dir.canonical() {
			return ParseTimeOfDay(x)
		}
		return x, nil
	case time.Time:
		if dir.canonical() {
			u := x.UTC()
			return time.Date(0, time.January, 1, u.Hour(), u.Minute(), u.Second(),
				u.Nanosecond()/int(time.Millisecond)*int(time.Millisecond), time.UTC), nil
		}
		return FormatTimeOfDay(x), nil
	}
	return nil, ferrors.NewValueError(ferrors.CodeBadDateTime,
		fmt.Sprintf("unexpected value %v for time type", v))
}

// holdsJSON reports whether a top-level value of n is stored as JSON text.
func holdsJSON(n *types.Node) bool {
	switch n.Kind {
	case types.KindArray, types.KindBoolean, types.KindInteger, types.KindNumber:
		return true
	case types.KindObject:
		return n.ElementType == types.ElementTypeNone
	default:
		return false
	}
}

func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func nullValue(n *types.Node) (any, error) {
	if n.IsNotNullable {
		return nil, ferrors.NewValueError(ferrors.CodeNullNotAllowed,
			fmt.Sprintf("unexpected null value for non-nullable field %q", n.ElementKey))
	}
	return nil, nil
}

func emptyString(n *types.Node) error {
	return ferrors.NewValueError(ferrors.CodeEmptyString,
		fmt.Sprintf("unexpected empty (zero-length string) value for field %q", n.ElementKey))
}
