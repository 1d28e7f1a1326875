package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TriggerCondition is the comparison applied to a PV value.
type TriggerCondition string

const (
	TriggerEqual          TriggerCondition = "="
	TriggerGreater        TriggerCondition = ">"
	TriggerGreaterOrEqual TriggerCondition = ">="
	TriggerLess           TriggerCondition = "<"
	TriggerLessOrEqual    TriggerCondition = "<="
)

// TriggerConditions lists every condition in display order.
var TriggerConditions = []TriggerCondition{
	TriggerEqual, TriggerGreater, TriggerGreaterOrEqual, TriggerLess, TriggerLessOrEqual,
}

// Valid reports whether c is a known condition.
func (c TriggerCondition) Valid() bool {
	switch c {
	case TriggerEqual, TriggerGreater, TriggerGreaterOrEqual, TriggerLess, TriggerLessOrEqual:
		return true
	}
	return false
}

// Matches applies the condition to value against threshold.
func (c TriggerCondition) Matches(value, threshold float64) bool {
	switch c {
	case TriggerEqual:
		return value == threshold
	case TriggerGreater:
		return value > threshold
	case TriggerGreaterOrEqual:
		return value >= threshold
	case TriggerLess:
		return value < threshold
	case TriggerLessOrEqual:
		return value <= threshold
	}
	return false
}

// PvDataType is the numeric type used to interpret a trigger value.
type PvDataType string

const (
	PvDataTypeUInt   PvDataType = "UINT"
	PvDataTypeULong  PvDataType = "ULONG"
	PvDataTypeInt    PvDataType = "INT"
	PvDataTypeLong   PvDataType = "LONG"
	PvDataTypeFloat  PvDataType = "FLOAT"
	PvDataTypeDouble PvDataType = "DOUBLE"
)

// PvDataTypes lists every data type in display order.
var PvDataTypes = []PvDataType{
	PvDataTypeUInt, PvDataTypeULong, PvDataTypeInt, PvDataTypeLong, PvDataTypeFloat, PvDataTypeDouble,
}

// Valid reports whether t is a known data type.
func (t PvDataType) Valid() bool {
	switch t {
	case PvDataTypeUInt, PvDataTypeULong, PvDataTypeInt, PvDataTypeLong, PvDataTypeFloat, PvDataTypeDouble:
		return true
	}
	return false
}

// ParseValue converts the textual trigger value into a typed DataValue.
func (t PvDataType) ParseValue(s string) (DataValue, error) {
	s = strings.TrimSpace(s)
	switch t {
	case PvDataTypeUInt:
		u, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return DataValue{}, fmt.Errorf("invalid UINT value %q: %w", s, err)
		}
		return UIntValue(uint32(u)), nil
	case PvDataTypeULong:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return DataValue{}, fmt.Errorf("invalid ULONG value %q: %w", s, err)
		}
		return ULongValue(u), nil
	case PvDataTypeInt:
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return DataValue{}, fmt.Errorf("invalid INT value %q: %w", s, err)
		}
		return IntValue(int32(i)), nil
	case PvDataTypeLong:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return DataValue{}, fmt.Errorf("invalid LONG value %q: %w", s, err)
		}
		return LongValue(i), nil
	case PvDataTypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return DataValue{}, fmt.Errorf("invalid FLOAT value %q: %w", s, err)
		}
		return FloatValue(float32(f)), nil
	case PvDataTypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return DataValue{}, fmt.Errorf("invalid DOUBLE value %q: %w", s, err)
		}
		return DoubleValue(f), nil
	}
	return DataValue{}, fmt.Errorf("unknown PV data type: %q", string(t))
}

// SubscriptionDescriptor is the identity of a data event subscription.
// It is comparable and used as a map key.
type SubscriptionDescriptor struct {
	PvName    string           `json:"pvName"`
	Condition TriggerCondition `json:"condition"`
	Value     string           `json:"value"`
	DataType  PvDataType       `json:"dataType"`
}

// DisplayString renders the descriptor as "<pv> <op> <value>".
func (d SubscriptionDescriptor) DisplayString() string {
	return fmt.Sprintf("%s %s %s", d.PvName, d.Condition, d.Value)
}

// String implements fmt.Stringer.
func (d SubscriptionDescriptor) String() string {
	return d.DisplayString()
}

// Validate checks every field and that the value parses as DataType.
func (d SubscriptionDescriptor) Validate() error {
	if strings.TrimSpace(d.PvName) == "" {
		return fmt.Errorf("PV name is required")
	}
	if !d.Condition.Valid() {
		return fmt.Errorf("invalid trigger condition: %q", string(d.Condition))
	}
	if !d.DataType.Valid() {
		return fmt.Errorf("invalid PV data type: %q", string(d.DataType))
	}
	if _, err := d.DataType.ParseValue(d.Value); err != nil {
		return err
	}
	return nil
}

// DataEvent is one trigger hit delivered on a subscription stream.
type DataEvent struct {
	Descriptor SubscriptionDescriptor `json:"descriptor"`
	EventTime  Timestamp              `json:"eventTime"`
	DataValue  *DataValue             `json:"dataValue,omitempty"`
}
