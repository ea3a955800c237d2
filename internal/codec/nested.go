package codec

import (
	"encoding/json"
	"fmt"

	"github.com/p-blackswan/ksync/internal/version"
)

// ExpandNestedJSON walks obj's NestedJSONPaths for family and, wherever the
// value there is a string holding an inline-serialized JSON document,
// replaces it with the parsed *Object/array so the file on disk shows
// structured JSON instead of an escaped blob. This generalizes the
// single-purpose Vega-spec unwrapping in
// original_source/src/transform/vega_spec.rs to every nested-JSON
// attribute known to the capability matrix, per spec §4.3.
func ExpandNestedJSON(obj *Object, family version.Family) error {
	for _, path := range NestedJSONPaths[family] {
		raw, ok := GetPath(obj, path)
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok || s == "" {
			continue
		}
		parsed, err := DecodeCanonical([]byte(s))
		if err != nil {
			// Not actually JSON (empty string, plain text fallback) — leave
			// the raw string in place rather than failing the whole object.
			continue
		}
		SetPath(obj, path, parsed)
	}
	return nil
}

// CollapseNestedJSON is ExpandNestedJSON's inverse: wherever a
// NestedJSONPaths value is now a structured *Object/array (because
// ExpandNestedJSON ran on a previous pull, or the file was hand-edited),
// it is re-serialized back into a compact inline JSON string so the wire
// payload matches what the server originally sent.
func CollapseNestedJSON(obj *Object, family version.Family) error {
	for _, path := range NestedJSONPaths[family] {
		raw, ok := GetPath(obj, path)
		if !ok {
			continue
		}
		if _, isString := raw.(string); isString {
			continue
		}
		compact, err := marshalCompact(raw)
		if err != nil {
			return fmt.Errorf("collapsing nested json at %s: %w", path, err)
		}
		SetPath(obj, path, compact)
	}
	return nil
}

func marshalCompact(v interface{}) (string, error) {
	plain := ToPlain(v)
	data, err := json.Marshal(plain)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToPlain converts an Object/array tree back into plain
// map[string]interface{}/[]interface{} so the standard json.Marshal can
// serialize it. Key order is lost — callers that need order-preserving
// output should use EncodeCanonical instead.
func ToPlain(v interface{}) interface{} {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]interface{}, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			m[k] = ToPlain(val)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = ToPlain(e)
		}
		return out
	default:
		return v
	}
}
