package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city"`
}

type person struct {
	Name    string    `json:"name"`
	Age     int       `json:"age,omitempty"`
	Born    time.Time `json:"born"`
	Address address   `json:"address"`
	secret  string
}

func TestStructToMap(t *testing.T) {
	born := time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)
	p := person{Name: "Ada", Born: born, Address: address{City: "London"}, secret: "x"}

	tests := []struct {
		name  string
		input any
	}{
		{"struct", p},
		{"pointer", &p},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := StructToMap(tt.input)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{
				"name":    "Ada",
				"born":    "1815-12-10T00:00:00Z",
				"address": map[string]any{"city": "London"},
			}, m)
		})
	}
}

func TestStructToMap_Errors(t *testing.T) {
	var nilPerson *person

	_, err := StructToMap[any](nil)
	assert.Error(t, err)

	_, err = StructToMap(nilPerson)
	assert.Error(t, err)

	_, err = StructToMap(42)
	assert.Error(t, err)

	_, err = StructToMap(map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestMapToStruct(t *testing.T) {
	input := map[string]any{
		"name":    "Ada",
		"age":     36.0,
		"born":    "1815-12-10T00:00:00Z",
		"address": map[string]any{"city": "London"},
		"extra":   true,
	}

	p, err := MapToStruct[person](input)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, 36, p.Age)
	assert.Equal(t, "London", p.Address.City)
	assert.True(t, p.Born.Equal(time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)))

	ptr, err := MapToStruct[*person](input)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, "Ada", ptr.Name)

	_, err = MapToStruct[int](input)
	assert.Error(t, err)

	_, err = MapToStruct[person](map[string]any{"age": "old"})
	assert.Error(t, err)
}

func TestDecodeMap(t *testing.T) {
	var p person
	require.NoError(t, DecodeMap(map[string]any{"name": "Grace"}, &p))
	assert.Equal(t, "Grace", p.Name)

	assert.Error(t, DecodeMap(nil, &p))
	assert.Error(t, DecodeMap(map[string]any{}, p))
	assert.Error(t, DecodeMap(map[string]any{}, nil))
	assert.Error(t, DecodeMap(map[string]any{"bad": make(chan int)}, &p))
}
