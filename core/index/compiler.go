// Package index compiles schemas into RediSearch FT.CREATE schema clauses.
//
// The compiler walks the field definitions depth first in declaration order,
// expanding nested object fields in place, and emits a flat token list such as
//
//	$.name AS name TAG SEPARATOR | $.age AS age NUMERIC SORTABLE
//
// It never talks to Redis. Unsupported modifiers are dropped with a warning.
package index

import (
	"fmt"

	"github.com/tsrpcx/redis-omx-node/core/schema"
	"go.uber.org/zap"
)

// RediSearch field types and modifiers.
const (
	TypeText    = "TEXT"
	TypeNumeric = "NUMERIC"
	TypeTag     = "TAG"
	TypeGeo     = "GEO"

	ModSortable  = "SORTABLE"
	ModSeparator = "SEPARATOR"
	KeywordAs    = "AS"
)

// Warning is an advisory message about a modifier or field that was dropped.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Compiler turns field definitions into index tokens.
type Compiler struct {
	resolver schema.Resolver
	logger   *zap.Logger
}

// NewCompiler creates a compiler resolving nested types through r.
func NewCompiler(r schema.Resolver, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{resolver: r, logger: logger}
}

// Compile returns the schema clause for s in its own storage mode.
func (c *Compiler) Compile(s *schema.Schema) ([]string, error) {
	tokens, _, err := c.compile(s.Fields(), s.DataStructure(), map[string]bool{s.Entity(): true})
	return tokens, err
}

// CompileFields compiles a definition map for the given storage mode and also
// returns the warnings it logged. Compilation is all or nothing: on error no
// tokens are returned.
func (c *Compiler) CompileFields(fields schema.FieldDefinitionMap, mode schema.DataStructure) ([]string, []Warning, error) {
	return c.compile(fields, mode, make(map[string]bool))
}

func (c *Compiler) compile(fields schema.FieldDefinitionMap, mode schema.DataStructure, visiting map[string]bool) ([]string, []Warning, error) {
	if !mode.IsValid() {
		return nil, nil, schema.DefinitionError("", fmt.Sprintf("unknown data structure '%s'", mode))
	}

	w := &walker{
		resolver: c.resolver,
		mode:     mode,
		visiting: visiting,
		tokens:   make([]string, 0, fields.Len()*4),
	}
	if err := w.walk(fields, ""); err != nil {
		return nil, nil, err
	}

	for _, warning := range w.warnings {
		c.logger.Warn(warning.Message, zap.String("field", warning.Field), zap.String("mode", string(mode)))
	}
	return w.tokens, w.warnings, nil
}

// walker carries the state of one compilation.
type walker struct {
	resolver schema.Resolver
	mode     schema.DataStructure
	visiting map[string]bool
	tokens   []string
	warnings []Warning
}

func (w *walker) walk(fields schema.FieldDefinitionMap, prefix string) error {
	return fields.Each(func(name string, def schema.FieldDefinition) error {
		if def.Type == schema.FieldTypeObject {
			return w.walkObject(name, def, prefix)
		}
		if !def.IsIndexed() {
			return nil
		}
		w.tokens = append(w.tokens, w.entry(name, def, prefix)...)
		return nil
	})
}

// walkObject expands a nested entity in place. The object itself never gets
// an entry of its own. Child paths are prefixed with the object's storage name
// (its alias when set), the same key the entity codec writes.
func (w *walker) walkObject(name string, def schema.FieldDefinition, prefix string) error {
	if w.visiting[def.ChildType] {
		return schema.CyclicSchemaError(name, def.ChildType)
	}
	if w.resolver == nil {
		return schema.UnregisteredEntityError(def.ChildType)
	}
	child, err := w.resolver.Resolve(def.ChildType)
	if err != nil {
		return err
	}
	if !def.IsIndexed() {
		return nil
	}

	w.visiting[def.ChildType] = true
	defer delete(w.visiting, def.ChildType)
	return w.walk(child, prefix+def.StorageName(name)+".")
}

func (w *walker) entry(name string, def schema.FieldDefinition, prefix string) []string {
	if w.mode == schema.DataStructureJSON {
		return w.jsonEntry(name, def, prefix)
	}
	return w.hashEntry(name, def, prefix)
}

func (w *walker) jsonEntry(name string, def schema.FieldDefinition, prefix string) []string {
	alias := prefix + def.StorageName(name)
	path := "$." + alias
	if def.Type == schema.FieldTypeStringArray {
		path += "[*]"
	}

	var details []string
	switch def.Type {
	case schema.FieldTypeDate, schema.FieldTypeNumber:
		details = sortable(TypeNumeric, def.Sortable)
	case schema.FieldTypeBoolean:
		if def.Sortable {
			w.warn(name, fmt.Sprintf("You have marked the boolean field '%s' as sortable but RediSearch doesn't support the SORTABLE argument on a TAG for JSON. Ignored.", name))
		}
		details = []string{TypeTag}
	case schema.FieldTypePoint:
		details = []string{TypeGeo}
	case schema.FieldTypeStringArray:
		details = []string{TypeTag}
	case schema.FieldTypeString:
		if def.Sortable {
			w.warn(name, fmt.Sprintf("You have marked the string field '%s' as sortable but RediSearch doesn't support the SORTABLE argument on a TAG for JSON. Ignored.", name))
		}
		details = []string{TypeTag, ModSeparator, def.SeparatorOrDefault()}
	case schema.FieldTypeText:
		details = sortable(TypeText, def.Sortable)
	default:
		w.unsupported(name, def)
		return nil
	}

	return append([]string{path, KeywordAs, alias}, details...)
}

func (w *walker) hashEntry(name string, def schema.FieldDefinition, prefix string) []string {
	path := prefix + def.StorageName(name)

	var details []string
	switch def.Type {
	case schema.FieldTypeDate, schema.FieldTypeNumber:
		details = sortable(TypeNumeric, def.Sortable)
	case schema.FieldTypeBoolean:
		details = sortable(TypeTag, def.Sortable)
	case schema.FieldTypePoint:
		details = []string{TypeGeo}
	case schema.FieldTypeStringArray:
		details = []string{TypeTag, ModSeparator, def.SeparatorOrDefault()}
	case schema.FieldTypeString:
		details = []string{TypeTag}
		if def.Separator != "" {
			details = append(details, ModSeparator, def.Separator)
		}
		if def.Sortable {
			details = append(details, ModSortable)
		}
	case schema.FieldTypeText:
		details = sortable(TypeText, def.Sortable)
	default:
		w.unsupported(name, def)
		return nil
	}

	return append([]string{path}, details...)
}

func (w *walker) unsupported(name string, def schema.FieldDefinition) {
	w.warn(name, fmt.Sprintf("The %s field '%s' cannot be indexed for %s. Ignored.", def.Type, name, w.mode))
}

func (w *walker) warn(field, message string) {
	w.warnings = append(w.warnings, Warning{Field: field, Message: message})
}

func sortable(fieldType string, isSortable bool) []string {
	if isSortable {
		return []string{fieldType, ModSortable}
	}
	return []string{fieldType}
}
