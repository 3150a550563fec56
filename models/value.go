package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a closed tagged variant for schema-less source payloads.
// Object values remember their key order so downstream header inference
// sees columns in the order the source declared them.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	keys []string
	obj  map[string]Value
}

// Null is the zero Value.
var Null = Value{}

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue wraps a float64.
func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// ArrayValue wraps a slice of values.
func ArrayValue(items []Value) Value { return Value{kind: KindArray, arr: items} }

// ObjectValue builds an object from ordered key/value pairs. Later
// duplicates overwrite earlier ones without changing key order.
func ObjectValue(keys []string, fields map[string]Value) Value {
	return Value{kind: KindObject, keys: keys, obj: fields}
}

// Kind reports the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the bool payload.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Number returns the numeric payload.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String returns the string payload.
func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Items returns the array payload, or nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Keys returns an object's keys in source order, or nil for other kinds.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return v.keys
}

// Field looks up an object member.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Null, false
	}
	child, ok := v.obj[name]
	return child, ok
}

// Has reports whether an object carries the named key.
func (v Value) Has(name string) bool {
	_, ok := v.Field(name)
	return ok
}

// Text renders a scalar as the text a report cell would show. Whole
// numbers print without a decimal point. Containers and null render
// empty, which coercion treats as unresolved.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Empty reports whether the value is null or blank text after trimming.
// Numbers and bools are never empty.
func (v Value) Empty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindArray:
		return len(v.arr) == 0
	case KindObject:
		return len(v.keys) == 0
	default:
		return false
	}
}

// ParseValue decodes JSON bytes into a Value, preserving object key order.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Null, err
	}
	if dec.More() {
		return Null, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Null, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return NumberValue(n), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	}
	return Null, fmt.Errorf("unexpected JSON token %v", tok)
}

func decodeObject(dec *json.Decoder) (Value, error) {
	keys := make([]string, 0, 8)
	fields := make(map[string]Value, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Null, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Null, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		child, err := decodeValue(dec)
		if err != nil {
			return Null, err
		}
		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = child
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return Null, err
	}
	return ObjectValue(keys, fields), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var items []Value
	for dec.More() {
		child, err := decodeValue(dec)
		if err != nil {
			return Null, err
		}
		items = append(items, child)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return Null, err
	}
	return ArrayValue(items), nil
}
