package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ValueKind is the closed set of extension value shapes this system reads.
type ValueKind int

const (
	ValueString ValueKind = iota + 1
	ValueBoolean
	ValueInteger
	ValueJSON
)

// Metafield type tags as they appear on the wire.
const (
	TypeSingleLine = "single_line_text_field"
	TypeMultiLine  = "multi_line_text_field"
	TypeURL        = "url"
	TypeDateTime   = "date_time"
	TypeDate       = "date"
	TypeBoolean    = "boolean"
	TypeInteger    = "number_integer"
	TypeJSON       = "json"
)

var typeKinds = map[string]ValueKind{
	TypeSingleLine: ValueString,
	TypeMultiLine:  ValueString,
	TypeURL:        ValueString,
	TypeDateTime:   ValueString,
	TypeDate:       ValueString,
	TypeBoolean:    ValueBoolean,
	TypeInteger:    ValueInteger,
	TypeJSON:       ValueJSON,
}

var (
	// ErrUnknownType is returned for a type tag outside the closed set.
	ErrUnknownType = errors.New("unknown metafield type")
	// ErrMalformedValue is returned when the raw text does not parse as
	// its declared type.
	ErrMalformedValue = errors.New("malformed metafield value")
)

// Value is a parsed, typed extension value.
type Value struct {
	typ  string
	kind ValueKind
	raw  string
	b    bool
	n    int64
}

// ParseValue parses raw according to the type tag.
func ParseValue(typ, raw string) (Value, error) {
	kind, ok := typeKinds[typ]
	if !ok {
		return Value{}, fmt.Errorf("%w %q", ErrUnknownType, typ)
	}
	v := Value{typ: typ, kind: kind, raw: raw}
	switch kind {
	case ValueBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s %q", ErrMalformedValue, typ, raw)
		}
		v.b = b
	case ValueInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s %q", ErrMalformedValue, typ, raw)
		}
		v.n = n
	case ValueJSON:
		if !json.Valid([]byte(raw)) {
			return Value{}, fmt.Errorf("%w: %s", ErrMalformedValue, typ)
		}
	}
	return v, nil
}

// StringValue builds a text value of the given text type.
func StringValue(typ, s string) Value {
	return Value{typ: typ, kind: ValueString, raw: s}
}

func BoolValue(b bool) Value {
	return Value{typ: TypeBoolean, kind: ValueBoolean, raw: strconv.FormatBool(b), b: b}
}

func IntValue(n int64) Value {
	return Value{typ: TypeInteger, kind: ValueInteger, raw: strconv.FormatInt(n, 10), n: n}
}

// JSONValue encodes v as a json-typed value.
func JSONValue(v any) (Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Value{}, err
	}
	return Value{typ: TypeJSON, kind: ValueJSON, raw: string(b)}, nil
}

func (v Value) Type() string    { return v.typ }
func (v Value) Kind() ValueKind { return v.kind }

// Raw is the wire representation.
func (v Value) Raw() string { return v.raw }

func (v Value) String() string { return v.raw }
func (v Value) Bool() bool     { return v.b }
func (v Value) Int() int64     { return v.n }

// DecodeJSON unmarshals a json value into dst.
func (v Value) DecodeJSON(dst any) error {
	if v.kind != ValueJSON {
		return fmt.Errorf("metafield %s is not json", v.typ)
	}
	return json.Unmarshal([]byte(v.raw), dst)
}
