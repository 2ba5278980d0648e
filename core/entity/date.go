package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// Epoch second bounds of the dates a field accepts: the first and last second
// of years 1 and 9999, the range a time.Time round-trips through RFC 3339.
const (
	minDateSeconds = -62135596800
	maxDateSeconds = 253402300799
)

// DateField holds a time with whole-second precision, stored as epoch seconds.
type DateField struct {
	base
	value *time.Time
}

func newDateField(declared, path string, def schema.FieldDefinition) Field {
	return &DateField{base: base{declared: declared, path: path, def: def}}
}

func (f *DateField) Value() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}

func (f *DateField) IsNull() bool { return f.value == nil }

// Time returns the value and whether it is set.
func (f *DateField) Time() (time.Time, bool) {
	if f.value == nil {
		return time.Time{}, false
	}
	return *f.value, true
}

func (f *DateField) Set(v any) error { return assign(f, v) }

func (f *DateField) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}
	if isNull(v) {
		return func() { f.value = nil }, nil
	}

	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case *time.Time:
		t = *d
	case string:
		parsed, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return nil, f.mismatch(v)
		}
		t = parsed
	default:
		secs, ok := toFloat(v)
		if !ok || !finite(secs) {
			return nil, f.mismatch(v)
		}
		if secs < minDateSeconds || secs >= maxDateSeconds+1 {
			return nil, f.outOfRange(v)
		}
		t = time.Unix(int64(secs), 0)
	}

	if t.Unix() < minDateSeconds || t.Unix() > maxDateSeconds {
		return nil, f.outOfRange(v)
	}
	normalized := time.Unix(t.Unix(), 0).UTC()
	return func() { f.value = &normalized }, nil
}

func (f *DateField) outOfRange(v any) error {
	return schema.ValidationError(f.declared,
		fmt.Sprintf("Dates must fall between the years 1 and 9999, received '%v'.", v))
}

func (f *DateField) EncodeHash() map[string]string {
	out := make(map[string]string, 1)
	if f.value != nil {
		out[f.path] = strconv.FormatInt(f.value.Unix(), 10)
	}
	return out
}

func (f *DateField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *DateField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	secs, err := parseFinite(raw)
	if err != nil {
		return nil, schema.DecodeError(f.declared,
			fmt.Sprintf("Non-numeric value of '%s' read from Redis for date field.", raw)).WithCause(err)
	}
	return f.prepare(secs)
}

func (f *DateField) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if f.value != nil {
		out[f.Name()] = f.value.Unix()
	}
	return out
}

func (f *DateField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *DateField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}
