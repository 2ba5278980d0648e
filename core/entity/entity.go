package entity

import (
	"encoding/json"
	"fmt"

	"github.com/tsrpcx/redis-omx-node/core/schema"
	"github.com/tsrpcx/redis-omx-node/utils"
)

// Entity is one stored instance of a schema. Its codec tree is private to the
// instance; the schema is shared.
type Entity struct {
	id     string
	schema *schema.Schema
	fields FieldSet
}

// New builds an entity from raw data keyed by storage name.
func New(r schema.Resolver, s *schema.Schema, id string, data map[string]any) (*Entity, error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	fields, err := buildEntityFields(r, s, data)
	if err != nil {
		return nil, err
	}
	return &Entity{id: id, schema: s, fields: fields}, nil
}

// ID returns the entity identifier.
func (e *Entity) ID() string { return e.id }

// KeyName returns the Redis key the entity is stored under.
func (e *Entity) KeyName() string { return e.schema.KeyName(e.id) }

// Schema returns the entity's schema.
func (e *Entity) Schema() *schema.Schema { return e.schema }

// Fields returns the root codecs.
func (e *Entity) Fields() FieldSet { return e.fields }

// Field finds a codec by name or dotted path.
func (e *Entity) Field(path string) (Field, bool) {
	return e.fields.Lookup(path)
}

// Get returns the value at a name or dotted path, or nil.
func (e *Entity) Get(path string) any {
	f, ok := e.fields.Lookup(path)
	if !ok {
		return nil
	}
	return f.Value()
}

// Set assigns the value at a name or dotted path.
func (e *Entity) Set(path string, v any) error {
	f, ok := e.fields.Lookup(path)
	if !ok {
		return schema.ValidationError(path, fmt.Sprintf("entity '%s' has no field '%s'", e.schema.Entity(), path))
	}
	return f.Set(v)
}

// Data returns the non-null values keyed by storage name.
func (e *Entity) Data() map[string]any {
	out := make(map[string]any, e.fields.Len())
	for _, f := range e.fields.ordered() {
		if v := f.Value(); v != nil {
			out[f.Name()] = v
		}
	}
	return out
}

// ToHash encodes the entity as a flat hash record.
func (e *Entity) ToHash() map[string]string {
	out := make(map[string]string, e.fields.Len())
	for _, f := range e.fields.ordered() {
		for k, v := range f.EncodeHash() {
			out[k] = v
		}
	}
	return out
}

// FromHash loads every declared field from a flat hash record. Keys with no
// declared field are ignored. Every field is parsed before any is assigned, so
// on error the entity keeps its previous values.
func (e *Entity) FromHash(record map[string]string) error {
	return apply(prepareAll(e.fields.ordered(), func(f Field) (func(), error) {
		return f.prepareHash(record)
	}))
}

// ToJSON encodes the entity as a RedisJSON document.
func (e *Entity) ToJSON() map[string]any {
	out := make(map[string]any, e.fields.Len())
	for _, f := range e.fields.ordered() {
		for k, v := range f.EncodeJSON() {
			out[k] = v
		}
	}
	return out
}

// FromJSON loads every declared field from a RedisJSON document. Keys with no
// declared field are ignored. Like FromHash it assigns nothing on error.
func (e *Entity) FromJSON(doc map[string]any) error {
	return apply(prepareAll(e.fields.ordered(), func(f Field) (func(), error) {
		raw, ok := doc[f.Name()]
		if !ok {
			return prepareMissing(f)
		}
		return f.prepareJSON(raw)
	}))
}

// MarshalJSON renders the entity with its id for logging and APIs.
func (e *Entity) MarshalJSON() ([]byte, error) {
	out := e.Data()
	out["entityId"] = e.id
	return json.Marshal(out)
}

// Decode copies the entity's values into target, which must be a pointer to a
// struct whose json tags match the storage names.
func (e *Entity) Decode(target any) error {
	if err := utils.DecodeMap(e.Data(), target); err != nil {
		return fmt.Errorf("failed to decode entity %s: %w", e.KeyName(), err)
	}
	return nil
}
