package query

import "strconv"

// This file holds small helpers shared by the query builder and the search
// executor: pointer construction for optional DSL fields such as the page
// offset, and lenient numeric conversion for comparison values.

// IntPtr is a helper function that returns a pointer to an int. It is handy
// when filling optional fields of a QueryDSL literal.
func IntPtr(i int) *int {
	return &i
}

// ToFloat64 is a utility function that converts a value of various numeric
// types, or a numeric string, to a float64. It returns the converted float64
// and a boolean indicating whether the conversion was successful.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
