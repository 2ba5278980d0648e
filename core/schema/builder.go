package schema

import (
	"fmt"
	"strings"
)

// Builder assembles the field definitions of one entity type and freezes them
// into a Schema. A Builder is not safe for concurrent use.
type Builder struct {
	entity  string
	names   []string
	defs    map[string]FieldDefinition
	options Options
	errs    []string
}

// NewBuilder starts a schema for the entity with the given stable identifier.
func NewBuilder(entity string) *Builder {
	return &Builder{
		entity: entity,
		defs:   make(map[string]FieldDefinition),
	}
}

// Field declares a field with a full definition.
func (b *Builder) Field(name string, def FieldDefinition) *Builder {
	if _, exists := b.defs[name]; exists {
		b.errs = append(b.errs, fmt.Sprintf("field '%s' is declared twice", name))
		return b
	}
	b.names = append(b.names, name)
	b.defs[name] = def
	return b
}

// String declares a string field.
func (b *Builder) String(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypeString, opts))
}

// Text declares a full-text field.
func (b *Builder) Text(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypeText, opts))
}

// Number declares a numeric field.
func (b *Builder) Number(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypeNumber, opts))
}

// Boolean declares a boolean field.
func (b *Builder) Boolean(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypeBoolean, opts))
}

// Date declares a date field.
func (b *Builder) Date(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypeDate, opts))
}

// Point declares a geographic point field.
func (b *Builder) Point(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypePoint, opts))
}

// StringArray declares a string[] field.
func (b *Builder) StringArray(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypeStringArray, opts))
}

// NumberArray declares a number[] field.
func (b *Builder) NumberArray(name string, opts ...FieldOption) *Builder {
	return b.Field(name, newField(FieldTypeNumberArray, opts))
}

// Object declares a nested entity field whose schema is registered as childType.
func (b *Builder) Object(name, childType string, opts ...FieldOption) *Builder {
	def := newField(FieldTypeObject, opts)
	def.ChildType = childType
	return b.Field(name, def)
}

// WithOptions sets naming and storage options.
func (b *Builder) WithOptions(options Options) *Builder {
	b.options = options
	return b
}

// Build validates the definitions and returns an immutable Schema.
func (b *Builder) Build() (*Schema, error) {
	if strings.TrimSpace(b.entity) == "" {
		return nil, DefinitionError("", "entity identifier cannot be empty")
	}
	if len(b.errs) > 0 {
		return nil, DefinitionError("", strings.Join(b.errs, "; "))
	}

	fields := NewFieldDefinitionMap(b.names, b.defs)
	result := ValidateDefinition(fields)
	if !result.Valid {
		return nil, issuesError(result.Issues)
	}

	options := b.options.withDefaults(b.entity)
	if err := options.validate(); err != nil {
		return nil, err
	}

	return &Schema{entity: b.entity, fields: fields, options: options}, nil
}

// issuesError folds the error-severity issues into a single definition error.
func issuesError(issues []Issue) error {
	var msgs []string
	field := ""
	for _, issue := range issues {
		if issue.Severity != SeverityError {
			continue
		}
		if field == "" {
			field = issue.Path
		}
		msgs = append(msgs, issue.Message)
	}
	return DefinitionError(field, strings.Join(msgs, "; "))
}

// FieldOption tweaks a field declared through one of the typed Builder methods.
type FieldOption func(*FieldDefinition)

func newField(t FieldType, opts []FieldOption) FieldDefinition {
	def := FieldDefinition{Type: t}
	for _, opt := range opts {
		opt(&def)
	}
	return def
}

// WithAlias stores the field under a different name.
func WithAlias(alias string) FieldOption {
	return func(d *FieldDefinition) { d.Alias = alias }
}

// Sortable marks the field sortable.
func Sortable() FieldOption {
	return func(d *FieldDefinition) { d.Sortable = true }
}

// Unindexed excludes the field from the search index.
func Unindexed() FieldOption {
	return func(d *FieldDefinition) { d.Indexed = Bool(false) }
}

// WithSeparator sets the array or tag separator.
func WithSeparator(sep string) FieldOption {
	return func(d *FieldDefinition) { d.Separator = sep }
}

// WithDefault sets the value used when a stored record lacks the field.
func WithDefault(v any) FieldOption {
	return func(d *FieldDefinition) { d.DefaultValue = v }
}
