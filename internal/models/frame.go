package models

// DataColumn is one named series of values aligned with a frame's timestamps.
type DataColumn struct {
	Name   string      `json:"name"`
	Values []DataValue `json:"values"`
}

// DataFrame is a named table of timestamps plus one or more data columns.
type DataFrame struct {
	Name       string       `json:"name"`
	Timestamps []Timestamp  `json:"timestamps"`
	Columns    []DataColumn `json:"dataColumns"`
}

// ValueCount returns the total number of values across all columns.
func (f DataFrame) ValueCount() int {
	n := 0
	for _, c := range f.Columns {
		n += len(c.Values)
	}
	return n
}

// ColumnNames returns the names of the frame's columns in order.
func (f DataFrame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (f DataFrame) Column(name string) (DataColumn, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return DataColumn{}, false
}
