// Package schema provides the field definition model, the immutable Schema
// built from it, and the SchemaRegistry that resolves nested entity types.
package schema

import (
	"fmt"
)

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// unsortableTypes can never carry a SORTABLE modifier in either storage mode.
var unsortableTypes = map[FieldType]struct{}{
	FieldTypePoint:       {},
	FieldTypeStringArray: {},
	FieldTypeNumberArray: {},
	FieldTypeObject:      {},
}

// separableTypes accept a separator.
var separableTypes = map[FieldType]struct{}{
	FieldTypeString:      {},
	FieldTypeStringArray: {},
	FieldTypeNumberArray: {},
}

// Validator checks field definitions for internal consistency. It does not
// resolve nested types; that happens when a tree is built or an index compiled.
type Validator struct {
	issues []Issue
}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{issues: make([]Issue, 0)}
}

// ValidateDefinition is a convenience wrapper around Validator.Validate.
func ValidateDefinition(fields FieldDefinitionMap) ValidationResult {
	return NewValidator().Validate(fields)
}

// Validate inspects every definition and returns the issues found. Warnings do
// not make the result invalid.
func (v *Validator) Validate(fields FieldDefinitionMap) ValidationResult {
	v.issues = make([]Issue, 0)
	storage := make(map[string]string, fields.Len())

	_ = fields.Each(func(name string, def FieldDefinition) error {
		v.validateField(name, def)

		key := def.StorageName(name)
		if other, exists := storage[key]; exists {
			v.addIssue("DUPLICATE_STORAGE_NAME",
				fmt.Sprintf("Fields '%s' and '%s' are both stored as '%s'", other, name, key), name, SeverityError)
		}
		storage[key] = name
		return nil
	})

	valid := true
	for _, issue := range v.issues {
		if issue.Severity == SeverityError {
			valid = false
			break
		}
	}
	return ValidationResult{Valid: valid, Issues: v.issues}
}

func (v *Validator) validateField(name string, def FieldDefinition) {
	if name == "" {
		v.addIssue("EMPTY_FIELD_NAME", "Field name cannot be empty", name, SeverityError)
		return
	}

	if !def.Type.IsValid() {
		v.addIssue("UNKNOWN_FIELD_TYPE", fmt.Sprintf("Field '%s' has unknown type '%s'", name, def.Type), name, SeverityError)
		return
	}

	switch {
	case def.Type == FieldTypeObject && def.ChildType == "":
		v.addIssue("MISSING_CHILD_TYPE", fmt.Sprintf("Object field '%s' must reference a child type", name), name, SeverityError)
	case def.Type != FieldTypeObject && def.ChildType != "":
		v.addIssue("UNEXPECTED_CHILD_TYPE",
			fmt.Sprintf("Field '%s' of type '%s' cannot reference a child type", name, def.Type), name, SeverityError)
	}

	if def.Separator != "" {
		if _, ok := separableTypes[def.Type]; !ok {
			v.addIssue("UNEXPECTED_SEPARATOR",
				fmt.Sprintf("Field '%s' of type '%s' does not use a separator", name, def.Type), name, SeverityError)
		}
	}

	if def.Sortable {
		if _, ok := unsortableTypes[def.Type]; ok {
			v.addIssue("UNSORTABLE_FIELD",
				fmt.Sprintf("Field '%s' of type '%s' cannot be sortable", name, def.Type), name, SeverityWarning)
		}
	}
}

func (v *Validator) addIssue(code, message, path, severity string) {
	v.issues = append(v.issues, Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: severity,
	})
}
