package models

import "errors"

// PvInfo describes what the platform knows about one process variable.
type PvInfo struct {
	PvName             string     `json:"pvName"`
	LastProviderID     string     `json:"lastProviderId"`
	LastProviderName   string     `json:"lastProviderName"`
	DataType           string     `json:"dataType"`
	TimestampsType     string     `json:"timestampsType"`
	SamplePeriodNanos  int64      `json:"samplePeriod"`
	FirstDataTimestamp *Timestamp `json:"firstDataTimestamp,omitempty"`
	LastDataTimestamp  *Timestamp `json:"lastDataTimestamp,omitempty"`
	NumBuckets         int        `json:"numBuckets"`
}

// PvMetadataQuery selects PVs either by an explicit name list or by a
// regular expression pattern. Exactly one form must be used.
type PvMetadataQuery struct {
	Names   []string `json:"names,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

var (
	ErrEmptyPvQuery     = errors.New("PV name list or pattern is required")
	ErrAmbiguousPvQuery = errors.New("PV query must use either a name list or a pattern, not both")
)

// Validate checks that exactly one query form is present.
func (q PvMetadataQuery) Validate() error {
	switch {
	case len(q.Names) == 0 && q.Pattern == "":
		return ErrEmptyPvQuery
	case len(q.Names) > 0 && q.Pattern != "":
		return ErrAmbiguousPvQuery
	}
	return nil
}
