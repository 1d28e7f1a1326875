package models

// IngestRequest carries data frames for a registered provider.
type IngestRequest struct {
	ProviderID string            `json:"providerId"`
	RequestID  string            `json:"requestId"`
	Tags       []string          `json:"tags,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	EventName  *string           `json:"eventName,omitempty"`
	Frames     []DataFrame       `json:"frames"`
}

// IngestStats summarises an accepted ingestion.
type IngestStats struct {
	RequestID  string `json:"requestId"`
	FrameCount int    `json:"frameCount"`
	ValueCount int    `json:"valueCount"`
	PvCount    int    `json:"pvCount"`
}

// DataQuery asks for the values of PVs over a time window, returned as a
// single frame with one column per PV.
type DataQuery struct {
	PvNames   []string  `json:"pvNames"`
	BeginTime Timestamp `json:"beginTime"`
	EndTime   Timestamp `json:"endTime"`
}
