package entity

import (
	"reflect"

	"github.com/tsrpcx/redis-omx-node/core/schema"
	"github.com/tsrpcx/redis-omx-node/utils"
)

// ObjectField is a nested entity. Its value lives in the child codecs; the
// field itself only records whether the object is present.
type ObjectField struct {
	base
	children FieldSet
	present  bool
}

func newObjectField(declared, path string, def schema.FieldDefinition) Field {
	return &ObjectField{
		base:     base{declared: declared, path: path, def: def},
		children: newFieldSet(),
	}
}

// Children returns the child codecs.
func (f *ObjectField) Children() FieldSet { return f.children }

// Value returns a map of the non-null child values keyed by storage name.
func (f *ObjectField) Value() any {
	if !f.present {
		return nil
	}
	out := make(map[string]any, f.children.Len())
	for _, child := range f.children.ordered() {
		if v := child.Value(); v != nil {
			out[child.Name()] = v
		}
	}
	return out
}

func (f *ObjectField) IsNull() bool { return !f.present }

func (f *ObjectField) Set(v any) error { return assign(f, v) }

// prepare validates every child before any of them changes.
func (f *ObjectField) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}

	children := f.children.ordered()
	commits := make([]func(), 0, len(children))

	if isNull(v) {
		for _, child := range children {
			commit, err := child.prepare(nil)
			if err != nil {
				return nil, err
			}
			commits = append(commits, commit)
		}
		return func() {
			for _, commit := range commits {
				commit()
			}
			f.present = false
		}, nil
	}

	data, ok := objectData(v)
	if !ok {
		return nil, f.mismatch(v)
	}
	for _, child := range children {
		commit, err := child.prepare(data[child.Name()])
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}
	return func() {
		for _, commit := range commits {
			commit()
		}
		f.present = true
	}, nil
}

// objectData accepts a map or a struct (through its JSON form).
func objectData(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	m, err := utils.StructToMap(v)
	if err != nil {
		return nil, false
	}
	return m, true
}

func (f *ObjectField) EncodeHash() map[string]string {
	out := make(map[string]string)
	if !f.present {
		return out
	}
	for _, child := range f.children.ordered() {
		for k, v := range child.EncodeHash() {
			out[k] = v
		}
	}
	return out
}

// DecodeHash reads the flattened "parent.child" keys of every child. The
// object is present when at least one child has a value.
func (f *ObjectField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

// prepareHash parses every child before any of them changes. Presence is
// settled at commit time, once the children hold their decoded values.
func (f *ObjectField) prepareHash(record map[string]string) (func(), error) {
	children := f.children.ordered()
	decode, err := prepareAll(children, func(child Field) (func(), error) {
		return child.prepareHash(record)
	})
	if err != nil {
		return nil, err
	}

	fallback := func() { f.present = false }
	if f.def.DefaultValue != nil {
		if fallback, err = f.prepare(f.def.DefaultValue); err != nil {
			return nil, err
		}
	}

	return func() {
		decode()
		for _, child := range children {
			if !child.IsNull() {
				f.present = true
				return
			}
		}
		fallback()
	}, nil
}

func (f *ObjectField) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if !f.present {
		return out
	}
	nested := make(map[string]any, f.children.Len())
	for _, child := range f.children.ordered() {
		for k, v := range child.EncodeJSON() {
			nested[k] = v
		}
	}
	out[f.Name()] = nested
	return out
}

func (f *ObjectField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *ObjectField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	data, ok := objectData(raw)
	if !ok {
		return nil, f.mismatch(raw)
	}
	decode, err := prepareAll(f.children.ordered(), func(child Field) (func(), error) {
		value, exists := data[child.Name()]
		if !exists {
			return prepareMissing(child)
		}
		return child.prepareJSON(value)
	})
	if err != nil {
		return nil, err
	}
	return func() {
		decode()
		f.present = true
	}, nil
}
