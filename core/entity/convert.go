package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// toFloat accepts any Go numeric kind. Strings are not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// stringify converts a string, bool or number to its string form.
func stringify(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case json.Number:
		return s.String(), true
	}
	if f, ok := toFloat(v); ok {
		return formatFloat(f), true
	}
	return "", false
}

// finite reports whether n is neither NaN nor an infinity. Neither can be
// written to a JSON document or ordered in a NUMERIC index.
func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// parseFinite parses a stored number, rejecting "NaN" and "Inf" spellings.
func parseFinite(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !finite(n) {
		return 0, fmt.Errorf("number '%s' is not finite", s)
	}
	return n, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toSlice returns the elements of any slice or array value.
func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isNilPointer reports whether v is a typed nil pointer.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Pointer && rv.IsNil()
}

// isNull reports whether v is the null sentinel: nil or a typed nil pointer.
func isNull(v any) bool {
	return v == nil || isNilPointer(v)
}
