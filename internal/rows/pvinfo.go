package rows

import (
	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
)

// PvInfoRow is one row of the PV explore results. Selected backs the row
// checkbox.
type PvInfoRow struct {
	Info     models.PvInfo
	Selected *reactive.Cell[bool]

	SamplePeriod string
	FirstData    string
	LastData     string
	Provider     string
}

// NewPvInfoRow projects info into a row.
func NewPvInfoRow(info models.PvInfo) *PvInfoRow {
	provider := info.LastProviderName
	if provider == "" {
		provider = info.LastProviderID
	}
	return &PvInfoRow{
		Info:         info,
		Selected:     reactive.NewCell(false),
		SamplePeriod: FormatSamplePeriod(info.SamplePeriodNanos),
		FirstData:    formatOptionalTimestamp(info.FirstDataTimestamp),
		LastData:     formatOptionalTimestamp(info.LastDataTimestamp),
		Provider:     provider,
	}
}

// PvInfoRows projects every record.
func PvInfoRows(infos []models.PvInfo) []*PvInfoRow {
	out := make([]*PvInfoRow, len(infos))
	for i, info := range infos {
		out[i] = NewPvInfoRow(info)
	}
	return out
}
