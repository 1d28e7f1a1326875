package models

import "slices"

// DataBlock names a slice of time-series: a set of PVs over a time window.
type DataBlock struct {
	PvNames   []string  `json:"pvNames"`
	BeginTime Timestamp `json:"beginTime"`
	EndTime   Timestamp `json:"endTime"`
}

// Equal reports whether two blocks cover the same PVs and window.
func (b DataBlock) Equal(other DataBlock) bool {
	return b.BeginTime == other.BeginTime &&
		b.EndTime == other.EndTime &&
		slices.Equal(b.PvNames, other.PvNames)
}

// DataSet is a named, owner-scoped collection of data blocks.
type DataSet struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	OwnerID     string      `json:"ownerId,omitempty"`
	Description string      `json:"description,omitempty"`
	DataBlocks  []DataBlock `json:"dataBlocks"`
}

// DataSetCriteria selects datasets. Nil fields are not constrained.
type DataSetCriteria struct {
	ID              *string `json:"id,omitempty"`
	Owner           *string `json:"owner,omitempty"`
	NameDescription *string `json:"nameDescription,omitempty"`
	PvName          *string `json:"pvName,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c DataSetCriteria) IsEmpty() bool {
	return allNil(c.ID, c.Owner, c.NameDescription, c.PvName)
}
