package schema

import (
	"encoding/json"
	"fmt"
	"slices"
)

// FieldType represents the closed set of field types an entity can declare.
type FieldType string

const (
	FieldTypeString      FieldType = "string"   // Exact-match string, indexed as TAG
	FieldTypeText        FieldType = "text"     // Full-text searchable string
	FieldTypeNumber      FieldType = "number"   // Numeric data
	FieldTypeBoolean     FieldType = "boolean"  // True/false values
	FieldTypeDate        FieldType = "date"     // Point in time, stored as epoch seconds
	FieldTypePoint       FieldType = "point"    // Longitude/latitude pair
	FieldTypeObject      FieldType = "object"   // Nested entity, resolved through the registry
	FieldTypeStringArray FieldType = "string[]" // List of strings joined by a separator
	FieldTypeNumberArray FieldType = "number[]" // List of numbers joined by a separator
)

// fieldTypes lists every FieldType in a stable order.
var fieldTypes = []FieldType{
	FieldTypeString,
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeBoolean,
	FieldTypeDate,
	FieldTypePoint,
	FieldTypeObject,
	FieldTypeStringArray,
	FieldTypeNumberArray,
}

// FieldTypes returns all supported field types.
func FieldTypes() []FieldType {
	return slices.Clone(fieldTypes)
}

// IsValid reports whether t is one of the supported field types.
func (t FieldType) IsValid() bool {
	return slices.Contains(fieldTypes, t)
}

// IsArray reports whether values of this type are lists.
func (t FieldType) IsArray() bool {
	return t == FieldTypeStringArray || t == FieldTypeNumberArray
}

// DataStructure selects how entities are stored in Redis.
type DataStructure string

const (
	DataStructureHash DataStructure = "HASH" // Flat string fields
	DataStructureJSON DataStructure = "JSON" // Native RedisJSON documents
)

// IsValid reports whether d names a supported storage structure.
func (d DataStructure) IsValid() bool {
	return d == DataStructureHash || d == DataStructureJSON
}

// StopWordOptions controls the stop words RediSearch uses for an index.
type StopWordOptions string

const (
	StopWordsOff     StopWordOptions = "OFF"     // Disable stop words entirely
	StopWordsDefault StopWordOptions = "DEFAULT" // Use the RediSearch built-in list
	StopWordsCustom  StopWordOptions = "CUSTOM"  // Use Options.StopWords
)

// DefaultSeparator joins array values in hash records and TAG fields.
const DefaultSeparator = "|"

// FieldDefinition describes one declared field of an entity.
type FieldDefinition struct {
	Type FieldType `json:"type"`

	// Alias overrides the declared name in storage and in index paths.
	Alias string `json:"alias,omitempty"`

	// Indexed defaults to true when nil.
	Indexed *bool `json:"indexed,omitempty"`

	Sortable bool `json:"sortable,omitempty"`

	// Separator applies to string, string[] and number[] fields.
	Separator string `json:"separator,omitempty"`

	// DefaultValue is substituted when a stored record lacks the field.
	DefaultValue any `json:"defaultValue,omitempty"`

	// ChildType is the registry identifier of the nested entity. Set iff Type is object.
	ChildType string `json:"childType,omitempty"`
}

// StorageName returns the key the field is stored under.
func (f FieldDefinition) StorageName(declared string) string {
	if f.Alias != "" {
		return f.Alias
	}
	return declared
}

// IsIndexed reports whether the field takes part in the search index.
func (f FieldDefinition) IsIndexed() bool {
	return f.Indexed == nil || *f.Indexed
}

// SeparatorOrDefault returns the configured separator or DefaultSeparator.
func (f FieldDefinition) SeparatorOrDefault() string {
	if f.Separator != "" {
		return f.Separator
	}
	return DefaultSeparator
}

// Bool returns a pointer to b, for optional definition flags.
func Bool(b bool) *bool {
	return &b
}

// FieldDefinitionMap is an ordered, read-only mapping from declared field name
// to its definition. Declaration order is preserved so that compiled output
// is deterministic.
type FieldDefinitionMap struct {
	names []string
	defs  map[string]FieldDefinition
}

// NewFieldDefinitionMap copies names and defs into a frozen map. Names not
// present in defs map to the zero definition.
func NewFieldDefinitionMap(names []string, defs map[string]FieldDefinition) FieldDefinitionMap {
	frozen := make(map[string]FieldDefinition, len(defs))
	for _, name := range names {
		frozen[name] = defs[name]
	}
	return FieldDefinitionMap{names: slices.Clone(names), defs: frozen}
}

// Len returns the number of declared fields.
func (m FieldDefinitionMap) Len() int {
	return len(m.names)
}

// Names returns the declared field names in declaration order.
func (m FieldDefinitionMap) Names() []string {
	return slices.Clone(m.names)
}

// Get returns the definition of a declared field.
func (m FieldDefinitionMap) Get(name string) (FieldDefinition, bool) {
	def, ok := m.defs[name]
	return def, ok
}

// Each calls fn for every field in declaration order, stopping at the first error.
func (m FieldDefinitionMap) Each(fn func(name string, def FieldDefinition) error) error {
	for _, name := range m.names {
		if err := fn(name, m.defs[name]); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the map as an ordered list of named definitions.
func (m FieldDefinitionMap) MarshalJSON() ([]byte, error) {
	type namedField struct {
		Name string `json:"name"`
		FieldDefinition
	}
	out := make([]namedField, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, namedField{Name: name, FieldDefinition: m.defs[name]})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field definitions: %w", err)
	}
	return data, nil
}

// Issue describes a problem found while validating a schema definition.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"` // "error" or "warning"
}

// ValidationResult is the outcome of validating a schema definition.
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}
