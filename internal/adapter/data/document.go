// Package data contains the default [domain.Document] implementation and the
// conversion of user values (maps and structs) into documents.
package data

import (
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	goreflect "github.com/goccy/go-reflect"

	"github.com/jGRUBBS/mongomodel/domain"
)

// TagName is the struct tag controlling field names on conversion.
const TagName = "mongo"

// IDField is the reserved document id field.
const IDField = "_id"

var timeTyp = goreflect.TypeOf(*new(time.Time))

// M implements domain.Document by using a hashed map. Duplicates replace old
// values.
type M map[string]any

// NewDocument returns a new instance of [domain.Document] built from a map or
// a struct. Nested structures and lists are converted recursively.
func NewDocument(in any) (domain.Document, error) {
	if in == nil {
		return M{}, nil
	}
	switch t := in.(type) {
	case M:
		return maps.Clone(t), nil
	case domain.Document:
		res := make(M, t.Len())
		for k, v := range t.Iter() {
			res[k] = v
		}
		return res, nil
	case map[string]any:
		return parseMap(t)
	}

	r := goreflect.ValueNoEscapeOf(in)
	k := r.Kind()
	for k == goreflect.Interface || k == reflect.Pointer {
		if r.IsNil() {
			return M{}, nil
		}
		r = r.Elem()
		k = r.Kind()
	}
	if k != goreflect.Struct && k != goreflect.Map {
		return nil, fmt.Errorf("expected map or struct, got %s", r.Type().String())
	}
	doc, err := parseReflect(r)
	if err != nil {
		return nil, err
	}
	return doc.(domain.Document), nil
}

func parseMap(v map[string]any) (M, error) {
	res := make(M, len(v))
	for k, e := range v {
		parsed, err := parseValue(e)
		if err != nil {
			return nil, err
		}
		res[k] = parsed
	}
	return res, nil
}

func parseValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return parseMap(t)
	case []any:
		res := make([]any, len(t))
		for n, e := range t {
			parsed, err := parseValue(e)
			if err != nil {
				return nil, err
			}
			res[n] = parsed
		}
		return res, nil
	case string, bool, time.Time, time.Duration,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t, nil
	default:
		return parseReflect(goreflect.ValueNoEscapeOf(v))
	}
}

func parseReflect(r goreflect.Value) (any, error) {
	for r.Kind() == reflect.Pointer || r.Kind() == goreflect.Interface {
		if r.IsNil() {
			return nil, nil
		}
		r = r.Elem()
	}
	switch r.Kind() {
	case goreflect.Invalid:
		return nil, nil
	case goreflect.Slice:
		if r.IsNil() {
			return nil, nil
		}
		fallthrough
	case goreflect.Array:
		return parseList(r)
	case goreflect.Struct:
		if r.Type() == timeTyp {
			return r.Interface(), nil
		}
		return parseStruct(r)
	case goreflect.Map:
		if r.IsNil() {
			return nil, nil
		}
		return parseMapReflect(r)
	default:
		return r.Interface(), nil
	}
}

func parseStruct(r goreflect.Value) (M, error) {
	typ := r.Type()
	numField := r.NumField()

	res := make(M, numField)

	for n := range numField {
		field := typ.Field(n)
		if field.PkgPath != "" {
			continue
		}
		name, skip := fieldName(r.Field(n), field)
		if skip {
			continue
		}
		value, err := parseReflect(r.Field(n))
		if err != nil {
			return nil, err
		}
		res[name] = value
	}
	return res, nil
}

func fieldName(r goreflect.Value, typ goreflect.StructField) (string, bool) {
	name := typ.Name
	tag, ok := typ.Tag.Lookup(TagName)
	if !ok {
		return name, false
	}
	if tag == "-" {
		return "", true
	}
	segments := strings.Split(tag, ",")
	if segments[0] != "" {
		name = segments[0]
	}
	if slices.Contains(segments[1:], "omitempty") && isNullable(typ.Type) && r.IsNil() {
		return "", true
	}
	if slices.Contains(segments[1:], "omitzero") && r.IsZero() {
		return "", true
	}
	return name, false
}

func parseMapReflect(v goreflect.Value) (M, error) {
	if v.Type().Key().Kind() != goreflect.String {
		return nil, fmt.Errorf("document keys must be strings, got %s", v.Type().Key().String())
	}
	res := make(M, v.Len())
	for _, k := range v.MapKeys() {
		var err error
		if res[k.String()], err = parseReflect(v.MapIndex(k)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func parseList(r goreflect.Value) (any, error) {
	length := r.Len()
	res := make([]any, length)
	for i := range length {
		parsed, err := parseReflect(r.Index(i))
		if err != nil {
			return nil, err
		}
		res[i] = parsed
	}
	return res, nil
}

func isNullable(t goreflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}

// ID implements domain.Document.
func (d M) ID() any {
	return d[IDField]
}

// Get implements domain.Document.
func (d M) Get(key string) any {
	return d[key]
}

// Set implements domain.Document.
func (d M) Set(key string, value any) {
	d[key] = value
}

// Unset implements domain.Document.
func (d M) Unset(key string) {
	delete(d, key)
}

// Has implements domain.Document.
func (d M) Has(key string) bool {
	_, has := d[key]
	return has
}

// Len implements domain.Document.
func (d M) Len() int {
	return len(d)
}

// Iter implements domain.Document.
func (d M) Iter() iter.Seq2[string, any] {
	return maps.All(d)
}

// Keys implements domain.Document.
func (d M) Keys() iter.Seq[string] {
	return maps.Keys(d)
}

// MarshalJSON implements json.Marshaler.
func (d M) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *M) UnmarshalJSON(input []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(input, &raw); err != nil {
		return err
	}
	parsed, err := parseMap(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
