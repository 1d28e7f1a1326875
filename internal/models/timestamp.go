// Package models contains domain types for the data-platform desktop client.
package models

import "time"

// Timestamp is the wire representation of an instant.
type Timestamp struct {
	EpochSeconds int64 `json:"epochSeconds"`
	Nanoseconds  int64 `json:"nanoseconds"`
}

// TimestampOf converts a time.Time into its wire form.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{
		EpochSeconds: t.Unix(),
		Nanoseconds:  int64(t.Nanosecond()),
	}
}

// Time returns the instant in the host timezone.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.EpochSeconds, ts.Nanoseconds)
}

// IsZero reports whether the timestamp was never set.
func (ts Timestamp) IsZero() bool {
	return ts.EpochSeconds == 0 && ts.Nanoseconds == 0
}

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	if ts.EpochSeconds != other.EpochSeconds {
		return ts.EpochSeconds < other.EpochSeconds
	}
	return ts.Nanoseconds < other.Nanoseconds
}
