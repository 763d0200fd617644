// Package query encodes arbitrary map and slice data into URL query strings
// and form bodies, including nested data using the bracket notation
// (a[b][]=c) understood by most form parsers.
package query

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Build encodes data as a query string. Nested maps and slices are flattened
// with brackets: map keys become [key], slice elements become [] when the
// parent is a list. Map keys are emitted in sorted order. Booleans encode
// as 1 and 0 at every depth, as they do in [Values]. Values that are
// neither scalars nor containers (structs, funcs, nil) are skipped.
func Build(data any) string {
	v := indirect(reflect.ValueOf(data))
	if !isContainer(v) || v.Len() == 0 {
		return ""
	}

	return build(v, "", false)
}

func build(v reflect.Value, prefix string, nested bool) string {
	if v.Len() == 0 {
		return url.QueryEscape(prefix) + "="
	}

	assoc := v.Kind() == reflect.Map

	var parts []string
	for _, e := range entries(v) {
		elem := indirect(e.value)

		switch {
		case isScalar(elem):
			name := e.key
			if nested {
				if assoc {
					name = prefix + "[" + e.key + "]"
				} else {
					name = prefix + "[]"
				}
			}
			parts = append(parts, url.QueryEscape(name)+"="+rawEscape(scalar(elem)))

		case isContainer(elem):
			name := e.key
			if nested {
				name = prefix + "[" + e.key + "]"
			}
			parts = append(parts, build(elem, name, true))
		}
	}

	return strings.Join(parts, "&")
}

// Encode encodes flat data as a standard form body. Nested values are not
// expanded: an empty container becomes an empty value, any other container
// is skipped. Use Build for nested data.
func Encode(data any) string {
	return Values(data).Encode()
}

// Values converts flat data into url.Values.
func Values(data any) url.Values {
	if vals, ok := data.(url.Values); ok {
		return vals
	}

	out := url.Values{}

	v := indirect(reflect.ValueOf(data))
	if !isContainer(v) {
		return out
	}

	for _, e := range entries(v) {
		elem := indirect(e.value)

		switch {
		case isScalar(elem):
			out.Add(e.key, scalar(elem))
		case isContainer(elem) && elem.Len() == 0:
			out.Add(e.key, "")
		}
	}

	return out
}

// IsAssoc reports whether data is keyed by strings (a map) rather than
// by position (a slice).
func IsAssoc(data any) bool {
	v := indirect(reflect.ValueOf(data))
	return v.IsValid() && v.Kind() == reflect.Map
}

// IsMultiDim reports whether any value held by data is itself a
// non-empty map or slice.
func IsMultiDim(data any) bool {
	v := indirect(reflect.ValueOf(data))
	if !isContainer(v) {
		return false
	}

	for _, e := range entries(v) {
		elem := indirect(e.value)
		if isContainer(elem) && elem.Len() > 0 {
			return true
		}
	}

	return false
}

// IsContainer reports whether data is a map or slice that Build can encode.
func IsContainer(data any) bool {
	return isContainer(indirect(reflect.ValueOf(data)))
}

type entry struct {
	key   string
	value reflect.Value
}

func entries(v reflect.Value) []entry {
	if v.Kind() == reflect.Map {
		out := make([]entry, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out = append(out, entry{key: fmt.Sprint(iter.Key().Interface()), value: iter.Value()})
		}
		slices.SortFunc(out, func(a, b entry) int { return strings.Compare(a.key, b.key) })

		return out
	}

	out := make([]entry, v.Len())
	for i := range v.Len() {
		out[i] = entry{key: strconv.Itoa(i), value: v.Index(i)}
	}

	return out
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}

	return v
}

func isContainer(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}

	switch v.Kind() {
	case reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		return v.Type().Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}

func isScalar(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}

	switch v.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return v.Type().Elem().Kind() == reflect.Uint8
	default:
		return false
	}
}

// scalar renders v as text. Booleans follow the common form convention of
// "1" and "0".
func scalar(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return "0"
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Slice:
		return string(v.Bytes())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// rawEscape escapes s the way RFC 3986 expects values to be escaped,
// spaces included.
func rawEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
