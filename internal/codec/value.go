// Package codec implements the lossless translation between on-disk
// extended-JSON (comments, trailing commas, triple-quoted multi-line
// strings) and canonical JSON (spec §4.3).
//
// A small hand-rolled ordered-value tree (Value/Object) stands in for
// encoding/json's unordered map[string]interface{} so that key insertion
// order survives a read-then-write round trip, per spec §3's "sorted
// insertion order preserved" invariant on per-object files. No library in
// the example corpus is confirmed to preserve JSON object key order across
// round trips without network access to verify its exact API (see
// DESIGN.md), so this is deliberately minimal stdlib plumbing around
// encoding/json's token reader.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// Object is an insertion-order-preserving JSON object.
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]interface{})}
}

// Get returns the value at key and whether it was present.
func (o *Object) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set inserts or replaces key, preserving its original position on
// replace and appending on first insertion.
func (o *Object) Set(key string, value interface{}) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key if present, reporting whether it was removed.
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	clone := NewObject()
	for _, k := range o.keys {
		clone.Set(k, cloneValue(o.values[k]))
	}
	return clone
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// GetPath walks a dot-separated path of object keys, returning the leaf
// value. Arrays are not indexable through a path; the values this codec
// escapes/drops/marks are always object properties.
func GetPath(root *Object, path string) (interface{}, bool) {
	obj, key, ok := navigate(root, path, false)
	if !ok {
		return nil, false
	}
	return obj.Get(key)
}

// SetPath writes value at a dot-separated path, creating intermediate
// objects as needed.
func SetPath(root *Object, path string, value interface{}) {
	obj, key, _ := navigate(root, path, true)
	if obj != nil {
		obj.Set(key, value)
	}
}

// DeletePath removes the value at a dot-separated path, if present.
func DeletePath(root *Object, path string) bool {
	obj, key, ok := navigate(root, path, false)
	if !ok {
		return false
	}
	return obj.Delete(key)
}

func navigate(root *Object, path string, create bool) (obj *Object, leafKey string, ok bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", false
	}
	cur := root
	for _, part := range parts[:len(parts)-1] {
		v, exists := cur.Get(part)
		if !exists {
			if !create {
				return nil, "", false
			}
			next := NewObject()
			cur.Set(part, next)
			cur = next
			continue
		}
		next, isObj := v.(*Object)
		if !isObj {
			return nil, "", false
		}
		cur = next
	}
	return cur, parts[len(parts)-1], true
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	parts = append(parts, path[start:])
	return parts
}

// DecodeCanonical parses canonical (already comment-free, comma-clean)
// JSON bytes into an order-preserving Value tree.
func DecodeCanonical(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (interface{}, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("codec: object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			var arr []interface{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			if arr == nil {
				arr = []interface{}{}
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("codec: unexpected delimiter %v", t)
		}
	case json.Number:
		return t, nil
	default:
		return tok, nil // string, bool, nil
	}
}

// EncodeCanonical renders root (as produced by DecodeCanonical) as 2-space
// indented canonical JSON, re-emitting configured multi-line string paths
// as triple-quoted blocks (spec §4.3).
func EncodeCanonical(root *Object, multilinePaths []string) ([]byte, error) {
	multiline := make(map[*Object]map[string]bool)
	for _, p := range multilinePaths {
		markMultiline(root, p, multiline)
	}

	var buf bytes.Buffer
	if err := writeValue(&buf, root, 0, multiline); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// markMultiline pre-resolves which (object, key) pairs at path should be
// considered for triple-quote rendering; absent paths are silently
// skipped (not every record has every configured field).
func markMultiline(root *Object, path string, out map[*Object]map[string]bool) {
	obj, key, ok := navigate(root, path, false)
	if !ok {
		return
	}
	if out[obj] == nil {
		out[obj] = make(map[string]bool)
	}
	out[obj][key] = true
}

func writeValue(buf *bytes.Buffer, v interface{}, indent int, multiline map[*Object]map[string]bool) error {
	switch t := v.(type) {
	case *Object:
		return writeObject(buf, t, indent, multiline)
	case []interface{}:
		return writeArray(buf, t, indent, multiline)
	case json.Number:
		buf.WriteString(t.String())
		return nil
	case string:
		return writeJSONString(buf, t)
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case nil:
		buf.WriteString("null")
		return nil
	case float64:
		buf.WriteString(new(big.Float).SetFloat64(t).Text('f', -1))
		return nil
	default:
		enc, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	}
}

func writeObject(buf *bytes.Buffer, obj *Object, indent int, multiline map[*Object]map[string]bool) error {
	if obj.Len() == 0 {
		buf.WriteString("{}")
		return nil
	}
	buf.WriteString("{\n")
	pad := indentStr(indent + 1)
	marks := multiline[obj]
	for i, k := range obj.keys {
		buf.WriteString(pad)
		if err := writeJSONString(buf, k); err != nil {
			return err
		}
		buf.WriteString(": ")

		val := obj.values[k]
		if marks[k] {
			if s, ok := val.(string); ok && canTripleQuote(s) {
				writeTripleQuoted(buf, s)
			} else if err := writeValue(buf, val, indent+1, multiline); err != nil {
				return err
			}
		} else if err := writeValue(buf, val, indent+1, multiline); err != nil {
			return err
		}

		if i < len(obj.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(indentStr(indent))
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, arr []interface{}, indent int, multiline map[*Object]map[string]bool) error {
	if len(arr) == 0 {
		buf.WriteString("[]")
		return nil
	}
	buf.WriteString("[\n")
	pad := indentStr(indent + 1)
	for i, v := range arr {
		buf.WriteString(pad)
		if err := writeValue(buf, v, indent+1, multiline); err != nil {
			return err
		}
		if i < len(arr)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(indentStr(indent))
	buf.WriteByte(']')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(enc)
	return nil
}

func indentStr(n int) string {
	return string(bytes.Repeat([]byte("  "), n))
}
