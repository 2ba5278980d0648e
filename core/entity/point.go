package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// Geographic bounds RediSearch accepts for GEO fields.
const (
	MaxLongitude = 180.0
	MaxLatitude  = 85.05112878
)

// Point is a longitude/latitude pair.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// String returns the "longitude,latitude" form used in both encodings.
func (p Point) String() string {
	return formatFloat(p.Longitude) + "," + formatFloat(p.Latitude)
}

// ParsePoint parses the "longitude,latitude" form.
func ParsePoint(s string) (Point, error) {
	lon, lat, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("point '%s' must have the form 'longitude,latitude'", s)
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude in point '%s': %w", s, err)
	}
	latitude, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude in point '%s': %w", s, err)
	}
	return Point{Longitude: longitude, Latitude: latitude}, nil
}

// Valid reports whether p lies within the bounds Redis geo indexes accept.
func (p Point) Valid() bool {
	return p.Longitude >= -MaxLongitude && p.Longitude <= MaxLongitude &&
		p.Latitude >= -MaxLatitude && p.Latitude <= MaxLatitude
}

// PointField holds a Point.
type PointField struct {
	base
	value *Point
}

func newPointField(declared, path string, def schema.FieldDefinition) Field {
	return &PointField{base: base{declared: declared, path: path, def: def}}
}

func (f *PointField) Value() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}

func (f *PointField) IsNull() bool { return f.value == nil }

// Point returns the value and whether it is set.
func (f *PointField) Point() (Point, bool) {
	if f.value == nil {
		return Point{}, false
	}
	return *f.value, true
}

func (f *PointField) Set(v any) error { return assign(f, v) }

func (f *PointField) prepare(v any) (func(), error) {
	if err := f.checkDefined(v); err != nil {
		return nil, err
	}
	if isNull(v) {
		return func() { f.value = nil }, nil
	}

	var p Point
	switch d := v.(type) {
	case Point:
		p = d
	case *Point:
		p = *d
	case string:
		parsed, err := ParsePoint(d)
		if err != nil {
			return nil, f.mismatch(v)
		}
		p = parsed
	case map[string]any:
		lon, lonOK := toFloat(d["longitude"])
		lat, latOK := toFloat(d["latitude"])
		if !lonOK || !latOK {
			return nil, f.mismatch(v)
		}
		p = Point{Longitude: lon, Latitude: lat}
	default:
		return nil, f.mismatch(v)
	}

	if !p.Valid() {
		return nil, schema.ValidationError(f.declared,
			fmt.Sprintf("Points must be between ±%g latitude and ±%g longitude, received '%s'.", MaxLatitude, MaxLongitude, p))
	}
	return func() { f.value = &p }, nil
}

func (f *PointField) EncodeHash() map[string]string {
	out := make(map[string]string, 1)
	if f.value != nil {
		out[f.path] = f.value.String()
	}
	return out
}

func (f *PointField) DecodeHash(record map[string]string) error {
	return apply(f.prepareHash(record))
}

func (f *PointField) prepareHash(record map[string]string) (func(), error) {
	raw, ok := f.hashValue(record)
	if !ok {
		return prepareMissing(f)
	}
	p, err := ParsePoint(raw)
	if err != nil {
		return nil, schema.DecodeError(f.declared,
			fmt.Sprintf("Non-point value of '%s' read from Redis for point field.", raw)).WithCause(err)
	}
	return f.prepare(p)
}

func (f *PointField) EncodeJSON() map[string]any {
	out := make(map[string]any, 1)
	if f.value != nil {
		out[f.Name()] = f.value.String()
	}
	return out
}

func (f *PointField) DecodeJSON(raw any) error { return apply(f.prepareJSON(raw)) }

func (f *PointField) prepareJSON(raw any) (func(), error) {
	if raw == nil {
		return prepareMissing(f)
	}
	return f.prepare(raw)
}
