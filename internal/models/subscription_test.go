package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorDisplayString(t *testing.T) {
	d := SubscriptionDescriptor{PvName: "K:vac:p1", Condition: TriggerGreater, Value: "1.5", DataType: PvDataTypeDouble}
	assert.Equal(t, "K:vac:p1 > 1.5", d.DisplayString())

	d.Condition = TriggerLessOrEqual
	assert.Equal(t, "K:vac:p1 <= 1.5", d.String())
}

func TestDescriptorValidate(t *testing.T) {
	valid := SubscriptionDescriptor{PvName: "pv", Condition: TriggerEqual, Value: "3", DataType: PvDataTypeInt}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		edit func(*SubscriptionDescriptor)
	}{
		{"blank pv", func(d *SubscriptionDescriptor) { d.PvName = "  " }},
		{"bad condition", func(d *SubscriptionDescriptor) { d.Condition = "!=" }},
		{"bad type", func(d *SubscriptionDescriptor) { d.DataType = "STRING" }},
		{"unparseable value", func(d *SubscriptionDescriptor) { d.Value = "1.5" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.edit(&d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := PvDataTypeUInt.ParseValue(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, UIntValue(42), v)

	_, err = PvDataTypeUInt.ParseValue("-1")
	assert.Error(t, err)

	v, err = PvDataTypeDouble.ParseValue("1.5")
	require.NoError(t, err)
	f, ok := v.Float64()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	v, err = PvDataTypeLong.ParseValue("-9000000000")
	require.NoError(t, err)
	assert.Equal(t, "-9000000000", v.String())
}

func TestTriggerMatches(t *testing.T) {
	assert.True(t, TriggerEqual.Matches(2, 2))
	assert.True(t, TriggerGreater.Matches(2.1, 2))
	assert.False(t, TriggerGreater.Matches(2, 2))
	assert.True(t, TriggerGreaterOrEqual.Matches(2, 2))
	assert.True(t, TriggerLess.Matches(1, 2))
	assert.True(t, TriggerLessOrEqual.Matches(2, 2))
	assert.False(t, TriggerCondition("?").Matches(1, 1))
}

func TestDataValueFormatting(t *testing.T) {
	assert.Equal(t, "abc", StringValue("abc").String())
	assert.Equal(t, `"abc"`, StringValue("abc").Sample())
	assert.Equal(t, "1.25", DoubleValue(1.25).String())
	assert.Equal(t, "1.250", DoubleValue(1.25).Sample())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "", DataValue{}.String())

	_, ok := StringValue("x").Float64()
	assert.False(t, ok)
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := Timestamp{EpochSeconds: 1_700_000_000, Nanoseconds: 5}
	assert.Equal(t, ts, TimestampOf(ts.Time()))
	assert.True(t, Timestamp{EpochSeconds: 1}.Before(Timestamp{EpochSeconds: 1, Nanoseconds: 1}))
	assert.True(t, Timestamp{}.IsZero())
}

func TestPvMetadataQueryValidate(t *testing.T) {
	assert.ErrorIs(t, PvMetadataQuery{}.Validate(), ErrEmptyPvQuery)
	assert.ErrorIs(t, PvMetadataQuery{Names: []string{"a"}, Pattern: "b"}.Validate(), ErrAmbiguousPvQuery)
	assert.NoError(t, PvMetadataQuery{Pattern: "K:.*"}.Validate())
}

func TestDataBlockEqual(t *testing.T) {
	a := DataBlock{PvNames: []string{"a", "b"}, BeginTime: Timestamp{EpochSeconds: 1}, EndTime: Timestamp{EpochSeconds: 2}}
	b := a
	b.PvNames = []string{"a", "b"}
	assert.True(t, a.Equal(b))
	b.PvNames = []string{"b", "a"}
	assert.False(t, a.Equal(b))
}
