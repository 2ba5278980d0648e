package entity

import (
	"fmt"
	"strings"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// FieldSet is an ordered collection of codecs keyed by storage name.
type FieldSet struct {
	names  []string
	fields map[string]Field
}

func newFieldSet() FieldSet {
	return FieldSet{fields: make(map[string]Field)}
}

func (s *FieldSet) add(f Field) {
	s.names = append(s.names, f.Name())
	s.fields[f.Name()] = f
}

func (s FieldSet) ordered() []Field {
	out := make([]Field, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.fields[name])
	}
	return out
}

// Len returns the number of fields.
func (s FieldSet) Len() int { return len(s.names) }

// Names returns the storage names in declaration order.
func (s FieldSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Get finds a field by storage name or declared name.
func (s FieldSet) Get(name string) (Field, bool) {
	if f, ok := s.fields[name]; ok {
		return f, true
	}
	for _, f := range s.fields {
		if f.DeclaredName() == name {
			return f, true
		}
	}
	return nil, false
}

// Lookup follows a dotted path through object fields.
func (s FieldSet) Lookup(path string) (Field, bool) {
	head, rest, nested := strings.Cut(path, ".")
	f, ok := s.Get(head)
	if !ok || !nested {
		return f, ok
	}
	obj, ok := f.(*ObjectField)
	if !ok {
		return nil, false
	}
	return obj.children.Lookup(rest)
}

// Each calls fn for every field in declaration order.
func (s FieldSet) Each(fn func(Field) error) error {
	for _, f := range s.ordered() {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// BuildFields builds the codec tree for a field definition map, seeding each
// codec from data. Keys are looked up by storage name; missing keys and
// Undefined are treated as nil. Nested object fields are resolved through r
// and built recursively; an unregistered or self-containing child type fails
// the whole build.
func BuildFields(r schema.Resolver, fields schema.FieldDefinitionMap, data map[string]any) (FieldSet, error) {
	b := &treeBuilder{resolver: r, visiting: make(map[string]bool)}
	return b.build(fields, data, "")
}

// buildEntityFields is BuildFields with the root entity marked as visited.
func buildEntityFields(r schema.Resolver, s *schema.Schema, data map[string]any) (FieldSet, error) {
	b := &treeBuilder{resolver: r, visiting: map[string]bool{s.Entity(): true}}
	return b.build(s.Fields(), data, "")
}

type treeBuilder struct {
	resolver schema.Resolver
	visiting map[string]bool
}

func (b *treeBuilder) build(fields schema.FieldDefinitionMap, data map[string]any, prefix string) (FieldSet, error) {
	set := newFieldSet()

	err := fields.Each(func(name string, def schema.FieldDefinition) error {
		key := def.StorageName(name)
		raw := data[key]
		if _, ok := raw.(undefined); ok {
			raw = nil
		}

		if def.Type == schema.FieldTypeObject {
			f, err := b.buildObject(name, prefix+key, def, raw)
			if err != nil {
				return err
			}
			set.add(f)
			return nil
		}

		ctor, ok := constructors[def.Type]
		if !ok {
			return schema.DefinitionError(name, fmt.Sprintf("unknown field type '%s'", def.Type))
		}
		f := ctor(name, prefix+key, def)
		if err := f.Set(raw); err != nil {
			return err
		}
		set.add(f)
		return nil
	})
	if err != nil {
		return FieldSet{}, err
	}
	return set, nil
}

func (b *treeBuilder) buildObject(name, path string, def schema.FieldDefinition, raw any) (Field, error) {
	if b.visiting[def.ChildType] {
		return nil, schema.CyclicSchemaError(name, def.ChildType)
	}
	if b.resolver == nil {
		return nil, schema.UnregisteredEntityError(def.ChildType)
	}
	childDefs, err := b.resolver.Resolve(def.ChildType)
	if err != nil {
		return nil, err
	}

	var nested map[string]any
	if !isNull(raw) {
		m, ok := objectData(raw)
		if !ok {
			return nil, schema.ValidationError(name,
				fmt.Sprintf("Expected value with type of 'object' but received '%v'.", raw))
		}
		nested = m
	}

	b.visiting[def.ChildType] = true
	children, err := b.build(childDefs, nested, path+".")
	delete(b.visiting, def.ChildType)
	if err != nil {
		return nil, err
	}

	f := newObjectField(name, path, def).(*ObjectField)
	f.children = children
	f.present = nested != nil
	return f, nil
}
