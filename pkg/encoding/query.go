// Package encoding turns structured payloads into query strings and request bodies.
package encoding

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/saturnines/storefront-dispatch/pkg/errors"
)

// Param is one key/value pair of an ordered payload.
type Param struct {
	Key   string
	Value any
}

// Params is a payload whose key order is kept as written.
type Params []Param

// Add appends a pair and returns the extended Params.
func (p Params) Add(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// IsEmpty reports whether data would encode to an empty query string.
func IsEmpty(data any) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// EncodeQuery flattens data into a URL query string.
//
// Key order follows the payload itself: Params and struct fields keep their
// declared order, maps and url.Values are sorted by key since Go maps carry no order.
// Slice values repeat the key. Nil values are skipped.
func EncodeQuery(data any) (string, error) {
	if IsEmpty(data) {
		return "", nil
	}

	pairs, err := toParams(data)
	if err != nil {
		return "", errors.WrapError(err, errors.ErrEncoding, "encode query")
	}

	var b strings.Builder
	for _, p := range pairs {
		values, err := formatValue(p.Value)
		if err != nil {
			return "", errors.WrapError(fmt.Errorf("key %q: %w", p.Key, err), errors.ErrEncoding, "encode query")
		}
		for _, v := range values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.Key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String(), nil
}

func toParams(data any) (Params, error) {
	switch d := data.(type) {
	case Params:
		return d, nil
	case url.Values:
		return sortedParams(map[string][]string(d), func(v []string) any { return v }), nil
	case map[string]string:
		return sortedParams(d, func(v string) any { return v }), nil
	case map[string]any:
		return sortedParams(d, func(v any) any { return v }), nil
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return structParams(v), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", v.Type().Key())
		}
		out := make(Params, 0, v.Len())
		for _, k := range v.MapKeys() {
			out = append(out, Param{Key: k.String(), Value: v.MapIndex(k).Interface()})
		}
		slices.SortFunc(out, func(a, b Param) int { return strings.Compare(a.Key, b.Key) })
		return out, nil
	}
	return nil, fmt.Errorf("unsupported query payload type %T", data)
}

func sortedParams[V any](m map[string]V, wrap func(V) any) Params {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return lo.Map(keys, func(k string, _ int) Param {
		return Param{Key: k, Value: wrap(m[k])}
	})
}

// structParams walks exported fields in declaration order, honoring json tags.
func structParams(v reflect.Value) Params {
	t := v.Type()
	out := make(Params, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		omitEmpty := false
		if tag, ok := field.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			omitEmpty = lo.Contains(parts[1:], "omitempty")
		}
		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		out = append(out, Param{Key: name, Value: fv.Interface()})
	}
	return out
}

func formatValue(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	// a nil pointer must not reach a value-receiver String method
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, nil
	}

	switch val := value.(type) {
	case string:
		return []string{val}, nil
	case []string:
		return val, nil
	case fmt.Stringer:
		return []string{val.String()}, nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		return formatValue(v.Elem().Interface())
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return []string{fmt.Sprint(value)}, nil
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			vals, err := formatValue(v.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	case reflect.Map, reflect.Struct:
		// nested objects travel as JSON text
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return []string{string(raw)}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", value)
}
