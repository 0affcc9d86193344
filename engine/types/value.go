package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Kind uint8

const (
	Invalid Kind = iota
	String
	Integer
	Float
	Boolean
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	default:
		return "invalid"
	}
}

// Value is a concrete literal produced by evaluating a constant expression.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

func StringValue(s string) Value   { return Value{kind: String, s: s} }
func IntegerValue(i int64) Value   { return Value{kind: Integer, i: i} }
func FloatValue(f float64) Value   { return Value{kind: Float, f: f} }
func BooleanValue(b bool) Value    { return Value{kind: Boolean, b: b} }
func (v Value) Kind() Kind         { return v.kind }
func (v Value) AsString() string   { return v.s }
func (v Value) AsInt64() int64     { return v.i }
func (v Value) AsFloat64() float64 { return v.f }
func (v Value) AsBool() bool       { return v.b }

func (v Value) IsNumeric() bool {
	return v.kind == Integer || v.kind == Float
}

// Numeric widens an integer to float; strings and booleans are not numeric.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case Integer:
		return float64(v.i), true
	case Float:
		return v.f, true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.kind {
	case String:
		return v.s
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}

func (v Value) Equal(other Value) bool {
	return v == other
}

type jsonValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch v.kind {
	case String:
		raw, err = json.Marshal(v.s)
	case Integer:
		raw, err = json.Marshal(v.i)
	case Float:
		raw, err = json.Marshal(v.f)
	case Boolean:
		raw, err = json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("cannot marshal invalid value")
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue{Kind: v.kind.String(), Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Kind {
	case "string":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case "integer":
		var i int64
		if err := json.Unmarshal(jv.Value, &i); err != nil {
			return err
		}
		*v = IntegerValue(i)
	case "float":
		var f float64
		if err := json.Unmarshal(jv.Value, &f); err != nil {
			return err
		}
		*v = FloatValue(f)
	case "boolean":
		var b bool
		if err := json.Unmarshal(jv.Value, &b); err != nil {
			return err
		}
		*v = BooleanValue(b)
	default:
		return fmt.Errorf("invalid value kind: %s", jv.Kind)
	}
	return nil
}
