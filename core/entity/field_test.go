package entity

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsrpcx/redis-omx-node/core/schema"
)

func newTestField(t *testing.T, declared string, def schema.FieldDefinition) Field {
	t.Helper()
	f, err := NewField(declared, def)
	require.NoError(t, err)
	return f
}

func TestNewField_UnknownType(t *testing.T) {
	_, err := NewField("a", schema.FieldDefinition{Type: "uuid"})
	assert.True(t, schema.IsKind(err, schema.ErrDefinition))
}

func TestField_Set(t *testing.T) {
	born := time.Date(2000, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		fieldTyp schema.FieldType
		input    any
		expected any
		wantErr  bool
	}{
		{"string from string", schema.FieldTypeString, "Ada", "Ada", false},
		{"string from number", schema.FieldTypeString, 42, "42", false},
		{"string from float", schema.FieldTypeString, 1.5, "1.5", false},
		{"string from bool", schema.FieldTypeString, true, "true", false},
		{"empty string is a value", schema.FieldTypeString, "", "", false},
		{"string rejects slice", schema.FieldTypeString, []int{1}, nil, true},
		{"text from string", schema.FieldTypeText, "hello world", "hello world", false},
		{"text rejects map", schema.FieldTypeText, map[string]any{}, nil, true},
		{"number from int", schema.FieldTypeNumber, 42, 42.0, false},
		{"number from uint8", schema.FieldTypeNumber, uint8(7), 7.0, false},
		{"number from json number", schema.FieldTypeNumber, json.Number("2.5"), 2.5, false},
		{"number rejects numeric string", schema.FieldTypeNumber, "12", nil, true},
		{"number rejects NaN", schema.FieldTypeNumber, math.NaN(), nil, true},
		{"number rejects infinity", schema.FieldTypeNumber, math.Inf(1), nil, true},
		{"number rejects negative infinity", schema.FieldTypeNumber, float32(math.Inf(-1)), nil, true},
		{"boolean true", schema.FieldTypeBoolean, true, true, false},
		{"boolean false", schema.FieldTypeBoolean, false, false, false},
		{"boolean rejects string", schema.FieldTypeBoolean, "true", nil, true},
		{"boolean rejects number", schema.FieldTypeBoolean, 1, nil, true},
		{"date from time", schema.FieldTypeDate, born.Add(750 * time.Millisecond), born, false},
		{"date from RFC3339", schema.FieldTypeDate, "2000-01-02T05:04:05+02:00", born, false},
		{"date from epoch seconds", schema.FieldTypeDate, 946782245, born, false},
		{"date rejects garbage", schema.FieldTypeDate, "yesterday", nil, true},
		{"date rejects bool", schema.FieldTypeDate, true, nil, true},
		{"date rejects NaN", schema.FieldTypeDate, math.NaN(), nil, true},
		{"date rejects huge epoch seconds", schema.FieldTypeDate, 1e30, nil, true},
		{"date rejects negative huge epoch seconds", schema.FieldTypeDate, -1e30, nil, true},
		{"date rejects year past 9999", schema.FieldTypeDate, time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), nil, true},
		{"date accepts last second of 9999", schema.FieldTypeDate, 253402300799, time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC), false},
		{"point from string", schema.FieldTypePoint, "12.5, -3", Point{Longitude: 12.5, Latitude: -3}, false},
		{"point from struct", schema.FieldTypePoint, Point{Longitude: 1, Latitude: 2}, Point{Longitude: 1, Latitude: 2}, false},
		{"point from map", schema.FieldTypePoint, map[string]any{"longitude": 1, "latitude": 2.5}, Point{Longitude: 1, Latitude: 2.5}, false},
		{"point rejects longitude out of range", schema.FieldTypePoint, "181,0", nil, true},
		{"point rejects latitude out of range", schema.FieldTypePoint, Point{Latitude: 86}, nil, true},
		{"point rejects malformed string", schema.FieldTypePoint, "north", nil, true},
		{"string array", schema.FieldTypeStringArray, []string{"a", "b"}, []string{"a", "b"}, false},
		{"string array coerces elements", schema.FieldTypeStringArray, []any{"a", 1, false}, []string{"a", "1", "false"}, false},
		{"empty string array is a value", schema.FieldTypeStringArray, []string{}, []string{}, false},
		{"string array rejects nested arrays", schema.FieldTypeStringArray, []any{[]string{"a"}}, nil, true},
		{"string array rejects scalar", schema.FieldTypeStringArray, "a", nil, true},
		{"number array", schema.FieldTypeNumberArray, []int{1, 2}, []float64{1, 2}, false},
		{"number array rejects strings", schema.FieldTypeNumberArray, []any{1, "2"}, nil, true},
		{"number array rejects infinity", schema.FieldTypeNumberArray, []float64{1, math.Inf(1)}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestField(t, "aField", schema.FieldDefinition{Type: tt.fieldTyp})
			err := f.Set(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, schema.IsKind(err, schema.ErrValidation))
				assert.True(t, f.IsNull())
				return
			}
			require.NoError(t, err)
			if expected, ok := tt.expected.(time.Time); ok {
				got, ok := f.Value().(time.Time)
				require.True(t, ok)
				assert.Equal(t, expected.Unix(), got.Unix())
				assert.Equal(t, time.UTC, got.Location())
				return
			}
			assert.Equal(t, tt.expected, f.Value())
		})
	}
}

func TestField_RejectsUndefined(t *testing.T) {
	for _, ft := range schema.FieldTypes() {
		t.Run(string(ft), func(t *testing.T) {
			def := schema.FieldDefinition{Type: ft}
			if ft == schema.FieldTypeObject {
				def.ChildType = "child"
			}
			f := newTestField(t, "aField", def)
			err := f.Set(Undefined)
			require.Error(t, err)
			assert.True(t, schema.IsKind(err, schema.ErrValidation))
			assert.Contains(t, err.Error(), "Property cannot be set to undefined. Use nil instead.")
		})
	}
}

func TestField_NilClears(t *testing.T) {
	var nilPoint *Point
	f := newTestField(t, "where", schema.FieldDefinition{Type: schema.FieldTypePoint})
	require.NoError(t, f.Set("1,2"))
	assert.False(t, f.IsNull())

	require.NoError(t, f.Set(nilPoint))
	assert.True(t, f.IsNull())
	assert.Nil(t, f.Value())
	assert.Empty(t, f.EncodeHash())
	assert.Empty(t, f.EncodeJSON())
}

func TestField_FailedSetKeepsValue(t *testing.T) {
	f := newTestField(t, "age", schema.FieldDefinition{Type: schema.FieldTypeNumber})
	require.NoError(t, f.Set(36))

	err := f.Set("thirty-seven")
	require.Error(t, err)
	assert.Equal(t, "validation: Expected value with type of 'number' but received 'thirty-seven'. (field=age)", err.Error())
	assert.Equal(t, 36.0, f.Value())
}

func TestField_Hash(t *testing.T) {
	tests := []struct {
		name     string
		def      schema.FieldDefinition
		value    any
		expected map[string]string
	}{
		{"string", schema.FieldDefinition{Type: schema.FieldTypeString}, "Ada", map[string]string{"aField": "Ada"}},
		{"aliased string", schema.FieldDefinition{Type: schema.FieldTypeString, Alias: "other"}, "Ada", map[string]string{"other": "Ada"}},
		{"text", schema.FieldDefinition{Type: schema.FieldTypeText}, "some words", map[string]string{"aField": "some words"}},
		{"number", schema.FieldDefinition{Type: schema.FieldTypeNumber}, 0.25, map[string]string{"aField": "0.25"}},
		{"zero number is written", schema.FieldDefinition{Type: schema.FieldTypeNumber}, 0, map[string]string{"aField": "0"}},
		{"true", schema.FieldDefinition{Type: schema.FieldTypeBoolean}, true, map[string]string{"aField": "1"}},
		{"false", schema.FieldDefinition{Type: schema.FieldTypeBoolean}, false, map[string]string{"aField": "0"}},
		{"date", schema.FieldDefinition{Type: schema.FieldTypeDate}, time.Unix(946782245, 0), map[string]string{"aField": "946782245"}},
		{"point", schema.FieldDefinition{Type: schema.FieldTypePoint}, Point{Longitude: -0.1276, Latitude: 51.5072}, map[string]string{"aField": "-0.1276,51.5072"}},
		{"string array", schema.FieldDefinition{Type: schema.FieldTypeStringArray}, []string{"a", "b"}, map[string]string{"aField": "a|b"}},
		{"string array with separator", schema.FieldDefinition{Type: schema.FieldTypeStringArray, Separator: ","}, []string{"a", "b"}, map[string]string{"aField": "a,b"}},
		{"empty string array", schema.FieldDefinition{Type: schema.FieldTypeStringArray}, []string{}, map[string]string{"aField": ""}},
		{"number array", schema.FieldDefinition{Type: schema.FieldTypeNumberArray, Separator: ";"}, []float64{1, 2.5}, map[string]string{"aField": "1;2.5"}},
		{"null", schema.FieldDefinition{Type: schema.FieldTypeString}, nil, map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestField(t, "aField", tt.def)
			require.NoError(t, f.Set(tt.value))
			encoded := f.EncodeHash()
			assert.Equal(t, tt.expected, encoded)

			decoded := newTestField(t, "aField", tt.def)
			require.NoError(t, decoded.DecodeHash(encoded))
			assert.Equal(t, f.Value(), decoded.Value())
		})
	}
}

func TestField_JSON(t *testing.T) {
	tests := []struct {
		name     string
		def      schema.FieldDefinition
		value    any
		expected map[string]any
	}{
		{"string", schema.FieldDefinition{Type: schema.FieldTypeString}, "Ada", map[string]any{"aField": "Ada"}},
		{"aliased number", schema.FieldDefinition{Type: schema.FieldTypeNumber, Alias: "n"}, 3, map[string]any{"n": 3.0}},
		{"boolean", schema.FieldDefinition{Type: schema.FieldTypeBoolean}, false, map[string]any{"aField": false}},
		{"date", schema.FieldDefinition{Type: schema.FieldTypeDate}, time.Unix(946782245, 0), map[string]any{"aField": int64(946782245)}},
		{"point", schema.FieldDefinition{Type: schema.FieldTypePoint}, "1,2", map[string]any{"aField": "1,2"}},
		{"string array", schema.FieldDefinition{Type: schema.FieldTypeStringArray}, []string{"a"}, map[string]any{"aField": []string{"a"}}},
		{"number array", schema.FieldDefinition{Type: schema.FieldTypeNumberArray}, []int{4, 5}, map[string]any{"aField": []float64{4, 5}}},
		{"empty array", schema.FieldDefinition{Type: schema.FieldTypeNumberArray}, []int{}, map[string]any{"aField": []float64{}}},
		{"null", schema.FieldDefinition{Type: schema.FieldTypeNumber}, nil, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestField(t, "aField", tt.def)
			require.NoError(t, f.Set(tt.value))
			encoded := f.EncodeJSON()
			assert.Equal(t, tt.expected, encoded)

			// Go through the wire form so decoding sees what RedisJSON returns.
			body, err := json.Marshal(encoded)
			require.NoError(t, err)
			var doc map[string]any
			require.NoError(t, json.Unmarshal(body, &doc))

			decoded := newTestField(t, "aField", tt.def)
			require.NoError(t, decoded.DecodeJSON(doc[decoded.Name()]))
			assert.Equal(t, f.Value(), decoded.Value())
		})
	}
}

func TestField_DecodeMissing(t *testing.T) {
	tests := []struct {
		name     string
		def      schema.FieldDefinition
		expected any
	}{
		{"no default", schema.FieldDefinition{Type: schema.FieldTypeString}, nil},
		{"string default", schema.FieldDefinition{Type: schema.FieldTypeString, DefaultValue: "new"}, "new"},
		{"number default", schema.FieldDefinition{Type: schema.FieldTypeNumber, DefaultValue: 0}, 0.0},
		{"boolean default", schema.FieldDefinition{Type: schema.FieldTypeBoolean, DefaultValue: false}, false},
		{"array default", schema.FieldDefinition{Type: schema.FieldTypeStringArray, DefaultValue: []string{"x"}}, []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashField := newTestField(t, "aField", tt.def)
			require.NoError(t, hashField.DecodeHash(map[string]string{"other": "1"}))
			assert.Equal(t, tt.expected, hashField.Value())

			jsonField := newTestField(t, "aField", tt.def)
			require.NoError(t, jsonField.DecodeJSON(nil))
			assert.Equal(t, tt.expected, jsonField.Value())
		})
	}
}

func TestField_DecodeHashErrors(t *testing.T) {
	tests := []struct {
		name    string
		def     schema.FieldDefinition
		raw     string
		message string
	}{
		{"number", schema.FieldDefinition{Type: schema.FieldTypeNumber}, "abc", "Non-numeric value of 'abc' read from Redis for number field."},
		{"boolean", schema.FieldDefinition{Type: schema.FieldTypeBoolean}, "true", "Non-boolean value of 'true' read from Redis for boolean field."},
		{"date", schema.FieldDefinition{Type: schema.FieldTypeDate}, "2020-01-01", "Non-numeric value of '2020-01-01' read from Redis for date field."},
		{"point", schema.FieldDefinition{Type: schema.FieldTypePoint}, "1;2", "Non-point value of '1;2' read from Redis for point field."},
		{"number array", schema.FieldDefinition{Type: schema.FieldTypeNumberArray}, "1|x|3", "Non-numeric value of 'x' read from Redis for number array field."},
		{"number NaN", schema.FieldDefinition{Type: schema.FieldTypeNumber}, "NaN", "Non-numeric value of 'NaN' read from Redis for number field."},
		{"number infinity", schema.FieldDefinition{Type: schema.FieldTypeNumber}, "+Inf", "Non-numeric value of '+Inf' read from Redis for number field."},
		{"date infinity", schema.FieldDefinition{Type: schema.FieldTypeDate}, "Inf", "Non-numeric value of 'Inf' read from Redis for date field."},
		{"number array NaN", schema.FieldDefinition{Type: schema.FieldTypeNumberArray}, "1|NaN", "Non-numeric value of 'NaN' read from Redis for number array field."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestField(t, "aField", tt.def)
			err := f.DecodeHash(map[string]string{"aField": tt.raw})
			require.Error(t, err)
			assert.True(t, schema.IsKind(err, schema.ErrDecode))
			assert.Contains(t, err.Error(), tt.message)
			assert.True(t, f.IsNull())
		})
	}
}

func TestField_DecodeHashDateOutOfRange(t *testing.T) {
	f := newTestField(t, "born", schema.FieldDefinition{Type: schema.FieldTypeDate})
	require.NoError(t, f.Set(946782245))

	err := f.DecodeHash(map[string]string{"born": "1e30"})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrValidation))
	assert.Contains(t, err.Error(), "Dates must fall between the years 1 and 9999")
	assert.Equal(t, map[string]string{"born": "946782245"}, f.EncodeHash())
}

func TestField_DecodeEmptyHashArrays(t *testing.T) {
	strs := newTestField(t, "tags", schema.FieldDefinition{Type: schema.FieldTypeStringArray})
	require.NoError(t, strs.DecodeHash(map[string]string{"tags": ""}))
	assert.Equal(t, []string{}, strs.Value())

	nums := newTestField(t, "scores", schema.FieldDefinition{Type: schema.FieldTypeNumberArray})
	require.NoError(t, nums.DecodeHash(map[string]string{"scores": ""}))
	assert.Equal(t, []float64{}, nums.Value())
}

func TestField_SingleEmptyStringArrayFlattensToEmpty(t *testing.T) {
	f := newTestField(t, "tags", schema.FieldDefinition{Type: schema.FieldTypeStringArray})
	require.NoError(t, f.Set([]string{""}))
	assert.Equal(t, []string{""}, f.Value())

	record := f.EncodeHash()
	assert.Equal(t, map[string]string{"tags": ""}, record)

	require.NoError(t, f.DecodeHash(record))
	assert.Equal(t, []string{}, f.Value())

	assert.Equal(t, map[string]any{"tags": []string{}}, f.EncodeJSON())
}

func TestField_ArrayValueIsCopied(t *testing.T) {
	f := newTestField(t, "tags", schema.FieldDefinition{Type: schema.FieldTypeStringArray})
	input := []string{"a", "b"}
	require.NoError(t, f.Set(input))

	input[0] = "changed"
	got := f.Value().([]string)
	got[1] = "changed"
	assert.Equal(t, []string{"a", "b"}, f.Value())
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("-122.4194, 37.7749")
	require.NoError(t, err)
	assert.Equal(t, Point{Longitude: -122.4194, Latitude: 37.7749}, p)
	assert.Equal(t, "-122.4194,37.7749", p.String())
	assert.True(t, p.Valid())

	for _, bad := range []string{"", "1", "a,2", "1,b"} {
		_, err := ParsePoint(bad)
		assert.Error(t, err, bad)
	}
}
