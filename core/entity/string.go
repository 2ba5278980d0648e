package entity

import (
	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// stringish is shared by string and text fields. Strings, numbers and
// booleans are accepted and stored as their string form.
type stringish struct {
	base
	value *string
}

func (f *stringish) Value() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}

func (f *stringish) IsNull() bool { return f.value == nil }

// String returns the value and whether it is set.
func (f *stringish) String() (string, bool) {
	if f.value == nil {
		return "", false
	}
	return *f.value, true
}

func (f *stringish) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}
	if isNull(v) {
		return func() { f.value = nil }, nil
	}
	s, ok := stringify(v)
	if !ok {
		return nil, f.mismatch(v)
	}
	return func() { f.value = &s }, nil
}

func (f *stringish) EncodeHash() map[string]string {
	out := make(map[string]string, 1)
	if f.value != nil {
		out[f.path] = *f.value
	}
	return out
}

func (f *stringish) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if f.value != nil {
		out[f.Name()] = *f.value
	}
	return out
}

// StringField is an exact-match string, indexed as a TAG.
type StringField struct {
	stringish
}

func newStringField(declared, path string, def schema.FieldDefinition) Field {
	return &StringField{stringish{base: base{declared: declared, path: path, def: def}}}
}

func (f *StringField) Set(v any) error { return assign(f, v) }

func (f *StringField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *StringField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}

func (f *StringField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *StringField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}

// TextField is a full-text searchable string.
type TextField struct {
	stringish
}

func newTextField(declared, path string, def schema.FieldDefinition) Field {
	return &TextField{stringish{base: base{declared: declared, path: path, def: def}}}
}

func (f *TextField) Set(v any) error { return assign(f, v) }

func (f *TextField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *TextField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}

func (f *TextField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *TextField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}
