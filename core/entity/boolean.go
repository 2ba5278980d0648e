package entity

import (
	"fmt"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// BooleanField holds a bool. Hash records store it as "1" or "0".
type BooleanField struct {
	base
	value *bool
}

func newBooleanField(declared, path string, def schema.FieldDefinition) Field {
	return &BooleanField{base: base{declared: declared, path: path, def: def}}
}

func (f *BooleanField) Value() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}

func (f *BooleanField) IsNull() bool { return f.value == nil }

// Bool returns the value and whether it is set.
func (f *BooleanField) Bool() (bool, bool) {
	if f.value == nil {
		return false, false
	}
	return *f.value, true
}

func (f *BooleanField) Set(v any) error { return assign(f, v) }

func (f *BooleanField) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}
	if isNull(v) {
		return func() { f.value = nil }, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, f.mismatch(v)
	}
	return func() { f.value = &b }, nil
}

func (f *BooleanField) EncodeHash() map[string]string {
	out := make(map[string]string, 1)
	if f.value != nil {
		if *f.value {
			out[f.path] = "1"
		} else {
			out[f.path] = "0"
		}
	}
	return out
}

func (f *BooleanField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *BooleanField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	switch raw {
	case "1":
		return f.prepare(true)
	case "0":
		return f.prepare(false)
	}
	return nil, schema.DecodeError(f.declared,
		fmt.Sprintf("Non-boolean value of '%s' read from Redis for boolean field.", raw))
}

func (f *BooleanField) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if f.value != nil {
		out[f.Name()] = *f.value
	}
	return out
}

func (f *BooleanField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *BooleanField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}
