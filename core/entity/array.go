package entity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// StringArrayField holds a list of strings. Elements may be given as strings,
// numbers or booleans and are stored as strings.
type StringArrayField struct {
	base
	value []string
	set   bool
}

func newStringArrayField(declared, path string, def schema.FieldDefinition) Field {
	return &StringArrayField{base: base{declared: declared, path: path, def: def}}
}

func (f *StringArrayField) Value() any {
	if !f.set {
		return nil
	}
	return slices.Clone(f.value)
}

func (f *StringArrayField) IsNull() bool { return !f.set }

// Strings returns a copy of the value and whether it is set.
func (f *StringArrayField) Strings() ([]string, bool) {
	if !f.set {
		return nil, false
	}
	return slices.Clone(f.value), true
}

func (f *StringArrayField) Set(v any) error { return assign(f, v) }

func (f *StringArrayField) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}
	if isNull(v) {
		return func() { f.value, f.set = nil, false }, nil
	}
	items, ok := toSlice(v)
	if !ok {
		return nil, f.mismatch(v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := stringify(item)
		if !ok {
			return nil, f.mismatch(v)
		}
		out[i] = s
	}
	return func() { f.value, f.set = out, true }, nil
}

func (f *StringArrayField) EncodeHash() map[string]string {
	out := make(map[string]string, 1)
	if f.set {
		out[f.path] = strings.Join(f.value, f.def.SeparatorOrDefault())
	}
	return out
}

func (f *StringArrayField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *StringArrayField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	if raw == "" {
		return f.prepare([]string{})
	}
	return f.prepare(strings.Split(raw, f.def.SeparatorOrDefault()))
}

func (f *StringArrayField) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if f.set {
		out[f.Name()] = slices.Clone(f.value)
	}
	return out
}

func (f *StringArrayField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *StringArrayField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}

// NumberArrayField holds a list of float64.
type NumberArrayField struct {
	base
	value []float64
	set   bool
}

func newNumberArrayField(declared, path string, def schema.FieldDefinition) Field {
	return &NumberArrayField{base: base{declared: declared, path: path, def: def}}
}

func (f *NumberArrayField) Value() any {
	if !f.set {
		return nil
	}
	return slices.Clone(f.value)
}

func (f *NumberArrayField) IsNull() bool { return !f.set }

// Numbers returns a copy of the value and whether it is set.
func (f *NumberArrayField) Numbers() ([]float64, bool) {
	if !f.set {
		return nil, false
	}
	return slices.Clone(f.value), true
}

func (f *NumberArrayField) Set(v any) error { return assign(f, v) }

func (f *NumberArrayField) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}
	if isNull(v) {
		return func() { f.value, f.set = nil, false }, nil
	}
	items, ok := toSlice(v)
	if !ok {
		return nil, f.mismatch(v)
	}
	out := make([]float64, len(items))
	for i, item := range items {
		n, ok := toFloat(item)
		if !ok || !finite(n) {
			return nil, f.mismatch(v)
		}
		out[i] = n
	}
	return func() { f.value, f.set = out, true }, nil
}

func (f *NumberArrayField) EncodeHash() map[string]string {
	out := make(map[string]string, 1)
	if f.set {
		parts := make([]string, len(f.value))
		for i, n := range f.value {
			parts[i] = formatFloat(n)
		}
		out[f.path] = strings.Join(parts, f.def.SeparatorOrDefault())
	}
	return out
}

// DecodeHash splits the stored string and parses every token on its own.
func (f *NumberArrayField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *NumberArrayField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	if raw == "" {
		return f.prepare([]float64{})
	}
	tokens := strings.Split(raw, f.def.SeparatorOrDefault())
	numbers := make([]float64, len(tokens))
	for i, token := range tokens {
		n, err := parseFinite(token)
		if err != nil {
			return nil, schema.DecodeError(f.declared,
				fmt.Sprintf("Non-numeric value of '%s' read from Redis for number array field.", token)).WithCause(err)
		}
		numbers[i] = n
	}
	return f.prepare(numbers)
}

func (f *NumberArrayField) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if f.set {
		out[f.Name()] = slices.Clone(f.value)
	}
	return out
}

func (f *NumberArrayField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *NumberArrayField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}
