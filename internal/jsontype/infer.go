package jsontype

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"gopkg.in/yaml.v3"
)

// AnyMap is the open string-indexed map type.
const AnyMap = "{ [key: string]: any }"

// ErrUnsupported is returned for values that have no JSON shape.
var ErrUnsupported = errors.New("jsontype: unsupported value")

// Infer derives a structural type expression from a concrete value. The value
// may be a *yaml.Node (member order kept) or plain Go data as produced by
// encoding/json or yaml.v3 (map keys sorted).
func Infer(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "any", nil
	case *yaml.Node:
		return inferNode(val, map[*yaml.Node]bool{})
	case string:
		return "string", nil
	case bool:
		return "boolean", nil
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number", nil
	case []any:
		if len(val) == 0 {
			return "any[]", nil
		}
		return arrayOf(val[0])
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return record(keys, func(k string) any { return val[k] })
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "any", nil
		}
		return Infer(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "any[]", nil
		}
		return arrayOf(rv.Index(0).Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "", fmt.Errorf("%w: map key %s", ErrUnsupported, rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return record(keys, func(k string) any {
			return rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
		})
	case reflect.String:
		return "string", nil
	case reflect.Bool:
		return "boolean", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number", nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupported, v)
}

func arrayOf(first any) (string, error) {
	elem, err := Infer(first)
	if err != nil {
		return "", err
	}
	return arrayType(elem), nil
}

func arrayType(elem string) string {
	if strings.Contains(elem, "|") || strings.Contains(elem, "&") {
		elem = "(" + elem + ")"
	}
	return elem + "[]"
}

func record(keys []string, get func(string) any) (string, error) {
	if len(keys) == 0 {
		return AnyMap, nil
	}
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		t, err := Infer(get(k))
		if err != nil {
			return "", fmt.Errorf("key %q: %w", k, err)
		}
		lines = append(lines, naming.SafePropKey(k)+": "+t+";")
	}
	return naming.Record(lines), nil
}

// inferNode walks a node tree. active holds the collections on the current
// path; an alias leading back into one of them infers as any.
func inferNode(n *yaml.Node, active map[*yaml.Node]bool) (string, error) {
	if n == nil {
		return "any", nil
	}
	if n.Kind == yaml.SequenceNode || n.Kind == yaml.MappingNode {
		if active[n] {
			return "any", nil
		}
		active[n] = true
		defer delete(active, n)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return "any", nil
		}
		return inferNode(n.Content[0], active)
	case yaml.AliasNode:
		return inferNode(n.Alias, active)
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return "any[]", nil
		}
		elem, err := inferNode(n.Content[0], active)
		if err != nil {
			return "", err
		}
		return arrayType(elem), nil
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			return AnyMap, nil
		}
		lines := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			t, err := inferNode(n.Content[i+1], active)
			if err != nil {
				return "", fmt.Errorf("key %q: %w", key, err)
			}
			lines = append(lines, naming.SafePropKey(key)+": "+t+";")
		}
		return naming.Record(lines), nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return "any", nil
		case "!!int", "!!float":
			return "number", nil
		case "!!bool":
			return "boolean", nil
		default:
			return "string", nil
		}
	}
	return "", fmt.Errorf("%w: yaml node kind %d", ErrUnsupported, n.Kind)
}
