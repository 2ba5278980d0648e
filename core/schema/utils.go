package schema

import "strings"

// FindField looks a field up by declared name first, then by storage name.
// It returns the declared name alongside the definition.
func (s *Schema) FindField(name string) (string, FieldDefinition, bool) {
	return findIn(s.fields, name)
}

// ResolvePath follows a dotted path such as "address.city" through nested
// object fields and returns the leaf definition together with its storage
// path ("address.city" with aliases applied).
func (s *Schema) ResolvePath(r Resolver, path string) (FieldDefinition, string, bool) {
	parts := strings.Split(path, ".")
	fields := s.fields
	storage := make([]string, 0, len(parts))

	for i, part := range parts {
		declared, def, ok := findIn(fields, part)
		if !ok {
			return FieldDefinition{}, "", false
		}
		storage = append(storage, def.StorageName(declared))
		if i == len(parts)-1 {
			return def, strings.Join(storage, "."), true
		}
		if def.Type != FieldTypeObject || r == nil {
			return FieldDefinition{}, "", false
		}
		child, err := r.Resolve(def.ChildType)
		if err != nil {
			return FieldDefinition{}, "", false
		}
		fields = child
	}
	return FieldDefinition{}, "", false
}

func findIn(fields FieldDefinitionMap, name string) (string, FieldDefinition, bool) {
	if def, ok := fields.Get(name); ok {
		return name, def, true
	}
	for _, declared := range fields.names {
		if def := fields.defs[declared]; def.StorageName(declared) == name {
			return declared, def, true
		}
	}
	return "", FieldDefinition{}, false
}
