package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Resolver resolves a nested entity identifier to its field definitions.
type Resolver interface {
	Resolve(entity string) (FieldDefinitionMap, error)
}

var _ Resolver = (*SchemaRegistry)(nil)

// SchemaRegistry holds the schemas of all entity types known to an application.
// Schemas are registered at startup; lookups afterwards only take the read lock.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewSchemaRegistry creates an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]*Schema)}
}

// Register adds a schema under its entity identifier.
func (r *SchemaRegistry) Register(s *Schema) error {
	if s == nil {
		return fmt.Errorf("cannot register a nil schema")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.entity]; exists {
		return DefinitionError("", fmt.Sprintf("entity '%s' is already registered", s.entity))
	}
	r.schemas[s.entity] = s
	return nil
}

// MustRegister is like Register but panics on error. Meant for package-level setup.
func (r *SchemaRegistry) MustRegister(s *Schema) *Schema {
	if err := r.Register(s); err != nil {
		panic(err)
	}
	return s
}

// Schema returns the schema registered under entity.
func (r *SchemaRegistry) Schema(entity string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[entity]
	if !ok {
		return nil, UnregisteredEntityError(entity)
	}
	return s, nil
}

// Resolve returns the field definitions of a nested entity type.
func (r *SchemaRegistry) Resolve(entity string) (FieldDefinitionMap, error) {
	s, err := r.Schema(entity)
	if err != nil {
		return FieldDefinitionMap{}, err
	}
	return s.fields, nil
}

// Entities lists the registered identifiers in sorted order.
func (r *SchemaRegistry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
