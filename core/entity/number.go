package entity

import (
	"fmt"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// NumberField holds a float64.
type NumberField struct {
	base
	value *float64
}

func newNumberField(declared, path string, def schema.FieldDefinition) Field {
	return &NumberField{base: base{declared: declared, path: path, def: def}}
}

func (f *NumberField) Value() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}

func (f *NumberField) IsNull() bool { return f.value == nil }

// Number returns the value and whether it is set.
func (f *NumberField) Number() (float64, bool) {
	if f.value == nil {
		return 0, false
	}
	return *f.value, true
}

func (f *NumberField) Set(v any) error { return assign(f, v) }

func (f *NumberField) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}
	if isNull(v) {
		return func() { f.value = nil }, nil
	}
	n, ok := toFloat(v)
	if !ok || !finite(n) {
		return nil, f.mismatch(v)
	}
	return func() { f.value = &n }, nil
}

func (f *NumberField) EncodeHash() map[string]string {
	out := make(map[string]string, 1)
	if f.value != nil {
		out[f.path] = formatFloat(*f.value)
	}
	return out
}

func (f *NumberField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *NumberField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	n, err := parseFinite(raw)
	if err != nil {
		return nil, schema.DecodeError(f.declared,
			fmt.Sprintf("Non-numeric value of '%s' read from Redis for number field.", raw)).WithCause(err)
	}
	return f.prepare(n)
}

func (f *NumberField) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if f.value != nil {
		out[f.Name()] = *f.value
	}
	return out
}

func (f *NumberField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *NumberField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}
