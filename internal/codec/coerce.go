package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	ferrors "github.com/arkilian/formstore/internal/errors"
)

// toFloat coerces a numeric value. Strings are parsed.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toNumber(v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, ferrors.NewValueError(ferrors.CodeUnrecognizedShape,
			fmt.Sprintf("non-numeric value %v for number type", v))
	}
	return f, nil
}

// toInteger coerces v and requires it to be integral.
func toInteger(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return i, nil
		}
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, ferrors.NewValueError(ferrors.CodeUnrecognizedShape,
			fmt.Sprintf("non-numeric value %v for integer type", v))
	}
	if math.Round(f) != f || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, ferrors.NewValueError(ferrors.CodeNonInteger,
			fmt.Sprintf("non-integer value %v for integer type", v))
	}
	return int64(f), nil
}

// toBool makes a real boolean. Numbers are true when non-zero; text is
// matched without regard to case and "0" is false.
func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, ferrors.NewValueError(ferrors.CodeUnrecognizedShape,
			fmt.Sprintf("unrecognized boolean text %q", x))
	}
	if f, ok := toFloat(v); ok {
		return f != 0, nil
	}
	return false, ferrors.NewValueError(ferrors.CodeUnrecognizedShape,
		fmt.Sprintf("unrecognized boolean value %v", v))
}

// toText renders a scalar as text.
func toText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(v)
	}
}

// toList accepts []any or any other slice kind.
func toList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
