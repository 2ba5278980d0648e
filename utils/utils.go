// Package utils converts between Go structs and the map form entities are
// built from.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// StructToMap converts a struct into a map[string]any through its JSON form.
//
// json tags decide the keys, so a struct can be handed straight to an entity
// whose storage names match its tags. Nested structs become nested maps,
// times become RFC3339 strings and numbers become float64.
//
// The input must be a struct or a non-nil pointer to a struct.
//
// Example:
//
//	type Address struct {
//		City string `json:"city"`
//	}
//	type Person struct {
//		Name    string  `json:"name"`
//		Address Address `json:"address"`
//	}
//	m, err := StructToMap(Person{Name: "Ada", Address: Address{City: "London"}})
//	// m == map[string]any{"name": "Ada", "address": map[string]any{"city": "London"}}
func StructToMap[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}

	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToMap: failed to marshal input record to JSON: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("StructToMap: failed to unmarshal JSON to map: %w", err)
	}
	return out, nil
}

// MapToStruct is a generic function that converts a `map[string]any` into a
// new instance of the struct type `T`.
//
// It is the inverse of `StructToMap`: the map goes through its JSON form, so
// keys are matched against the struct's json tags and RFC3339 strings land in
// `time.Time` fields. Keys with no matching field are ignored.
//
// `T` must be a struct type. If `T` is a pointer type (e.g. `*Person`), a
// newly allocated struct is returned. On failure the zero value of `T` is
// returned with the error.
//
// Example:
//
//	type Person struct {
//		Name string `json:"name"`
//		Age  int    `json:"age"`
//	}
//	p, err := MapToStruct[Person](map[string]any{"name": "Ada", "age": 36.0})
//	// p == Person{Name: "Ada", Age: 36}
func MapToStruct[T any](input map[string]any) (T, error) {
	var zero T

	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("MapToStruct: generic type T must be a struct type (or pointer to struct)")
	}

	var result T
	if err := DecodeMap(input, &result); err != nil {
		return zero, err
	}
	return result, nil
}

// DecodeMap is a helper function that fills `target` from `input` through its
// JSON form. Unlike MapToStruct the destination is supplied by the caller, so
// it works for any type `encoding/json` can decode into.
//
// `target` must be a non-nil pointer and `input` must not be nil.
func DecodeMap(input map[string]any, target any) error {
	if input == nil {
		return fmt.Errorf("DecodeMap: input map cannot be nil")
	}
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("DecodeMap: target must be a non-nil pointer")
	}

	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("DecodeMap: failed to marshal input map to JSON: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("DecodeMap: failed to unmarshal JSON to target: %w", err)
	}
	return nil
}
