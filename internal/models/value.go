package models

import (
	"fmt"
	"strconv"
)

// ValueKind discriminates the variants of DataValue.
type ValueKind string

const (
	ValueKindString ValueKind = "string"
	ValueKindDouble ValueKind = "double"
	ValueKindFloat  ValueKind = "float"
	ValueKindInt    ValueKind = "int"
	ValueKindLong   ValueKind = "long"
	ValueKindUInt   ValueKind = "uint"
	ValueKindULong  ValueKind = "ulong"
	ValueKindBool   ValueKind = "bool"
)

// DataValue is a tagged union of the scalar types carried by data columns
// and events. Only the field matching Kind is meaningful.
type DataValue struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Double float64   `json:"double,omitempty"`
	Int    int64     `json:"int,omitempty"`
	Uint   uint64    `json:"uint,omitempty"`
	Bool   bool      `json:"bool,omitempty"`
}

func StringValue(s string) DataValue  { return DataValue{Kind: ValueKindString, Text: s} }
func DoubleValue(f float64) DataValue { return DataValue{Kind: ValueKindDouble, Double: f} }
func FloatValue(f float32) DataValue  { return DataValue{Kind: ValueKindFloat, Double: float64(f)} }
func IntValue(i int32) DataValue      { return DataValue{Kind: ValueKindInt, Int: int64(i)} }
func LongValue(i int64) DataValue     { return DataValue{Kind: ValueKindLong, Int: i} }
func UIntValue(u uint32) DataValue    { return DataValue{Kind: ValueKindUInt, Uint: uint64(u)} }
func ULongValue(u uint64) DataValue   { return DataValue{Kind: ValueKindULong, Uint: u} }
func BoolValue(b bool) DataValue      { return DataValue{Kind: ValueKindBool, Bool: b} }

// String renders the value for display.
func (v DataValue) String() string {
	switch v.Kind {
	case ValueKindString:
		return v.Text
	case ValueKindDouble, ValueKindFloat:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case ValueKindInt, ValueKindLong:
		return strconv.FormatInt(v.Int, 10)
	case ValueKindUInt, ValueKindULong:
		return strconv.FormatUint(v.Uint, 10)
	case ValueKindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Float64 returns the numeric value, if the variant is numeric.
func (v DataValue) Float64() (float64, bool) {
	switch v.Kind {
	case ValueKindDouble, ValueKindFloat:
		return v.Double, true
	case ValueKindInt, ValueKindLong:
		return float64(v.Int), true
	case ValueKindUInt, ValueKindULong:
		return float64(v.Uint), true
	case ValueKindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Sample formats a value for the frame details viewer: doubles with three
// decimals and strings quoted.
func (v DataValue) Sample() string {
	switch v.Kind {
	case ValueKindDouble, ValueKindFloat:
		return fmt.Sprintf("%.3f", v.Double)
	case ValueKindString:
		return strconv.Quote(v.Text)
	default:
		return v.String()
	}
}
