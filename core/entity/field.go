// Package entity converts between typed entity values and the two Redis
// encodings: flat hash records, where every value is a string, and RedisJSON
// documents, which keep native types and nesting.
//
// Every declared field becomes one Field codec. Object fields hold a child
// FieldSet, so an entity is a tree of codecs mirroring its schema.
package entity

import (
	"fmt"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the "no value was given" marker. Assigning it to a field is
// always a validation error; nil is the way to clear a field.
var Undefined = undefined{}

// Field is the codec for one declared field. The set of implementations is
// closed: one per schema.FieldType.
type Field interface {
	// Name is the storage name: the alias if set, otherwise the declared name.
	Name() string
	// DeclaredName is the name used in the schema definition.
	DeclaredName() string
	// Path is the flattened hash key, "parent.child" for nested fields.
	Path() string
	Type() schema.FieldType
	Definition() schema.FieldDefinition

	// Value returns the current value, or nil when the field is null.
	Value() any
	IsNull() bool
	// Set validates and normalizes v. On error the field is left unchanged.
	Set(v any) error

	// EncodeHash returns at most one key per leaf; null fields produce nothing.
	EncodeHash() map[string]string
	// DecodeHash reads the field's own key(s) from a flat record. On error the
	// field is left unchanged.
	DecodeHash(record map[string]string) error
	// EncodeJSON returns at most one key; null fields produce nothing.
	EncodeJSON() map[string]any
	// DecodeJSON assigns a native document value.
	DecodeJSON(raw any) error

	// prepare validates v and returns the assignment to run on success.
	prepare(v any) (func(), error)
	// prepareHash and prepareJSON parse a stored value without touching the
	// field, so a whole record can be checked before anything is assigned.
	prepareHash(record map[string]string) (func(), error)
	prepareJSON(raw any) (func(), error)
}

// base carries what every codec shares.
type base struct {
	declared string
	path     string
	def      schema.FieldDefinition
}

func (b *base) Name() string                       { return b.def.StorageName(b.declared) }
func (b *base) DeclaredName() string               { return b.declared }
func (b *base) Path() string                       { return b.path }
func (b *base) Type() schema.FieldType             { return b.def.Type }
func (b *base) Definition() schema.FieldDefinition { return b.def }

// checkDefined rejects Undefined for every field type.
func (b *base) checkDefined(v any) error {
	if _, ok := v.(undefined); ok {
		return schema.ValidationError(b.declared, "Property cannot be set to undefined. Use nil instead.")
	}
	return nil
}

// mismatch builds the standard type mismatch error.
func (b *base) mismatch(v any) error {
	return schema.ValidationError(b.declared,
		fmt.Sprintf("Expected value with type of '%s' but received '%v'.", b.def.Type, v))
}

// hashValue returns the raw record value stored under the field's path.
func (b *base) hashValue(record map[string]string) (string, bool) {
	raw, ok := record[b.path]
	return raw, ok
}

// apply runs commit unless err is set.
func apply(commit func(), err error) error {
	if err != nil {
		return err
	}
	commit()
	return nil
}

// assign runs prepare and commits on success.
func assign(f Field, v any) error {
	return apply(f.prepare(v))
}

// prepareMissing handles a stored record that lacks the field: the default
// value if one is declared, otherwise null.
func prepareMissing(f Field) (func(), error) {
	if def := f.Definition().DefaultValue; def != nil {
		return f.prepare(def)
	}
	return f.prepare(nil)
}

// prepareAll runs every step and returns one commit for all of them, or the
// first error with nothing committed.
func prepareAll(fields []Field, step func(Field) (func(), error)) (func(), error) {
	commits := make([]func(), 0, len(fields))
	for _, f := range fields {
		commit, err := step(f)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}
	return func() {
		for _, commit := range commits {
			commit()
		}
	}, nil
}

// constructor creates an empty codec for a declared field.
type constructor func(declared, path string, def schema.FieldDefinition) Field

var constructors = map[schema.FieldType]constructor{
	schema.FieldTypeString:      newStringField,
	schema.FieldTypeText:        newTextField,
	schema.FieldTypeNumber:      newNumberField,
	schema.FieldTypeBoolean:     newBooleanField,
	schema.FieldTypeDate:        newDateField,
	schema.FieldTypePoint:       newPointField,
	schema.FieldTypeStringArray: newStringArrayField,
	schema.FieldTypeNumberArray: newNumberArrayField,
	schema.FieldTypeObject:      newObjectField,
}

// NewField creates a null codec for a field definition. Object fields are
// created without children; use BuildFields to get a complete tree.
func NewField(declared string, def schema.FieldDefinition) (Field, error) {
	ctor, ok := constructors[def.Type]
	if !ok {
		return nil, schema.DefinitionError(declared, fmt.Sprintf("unknown field type '%s'", def.Type))
	}
	return ctor(declared, def.StorageName(declared), def), nil
}
