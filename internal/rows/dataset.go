package rows

import (
	"strings"

	"github.com/dp-desktop/client/internal/models"
)

// DatasetRow is one row of the dataset explore results.
type DatasetRow struct {
	DataSet models.DataSet

	// Blocks renders every data block as "[pv1, pv2: begin -> end]".
	Blocks string
	// PvNames lists the distinct PV names across blocks in first-seen order.
	PvNames []string
}

// NewDatasetRow projects ds into a row.
func NewDatasetRow(ds models.DataSet) *DatasetRow {
	blocks := make([]string, len(ds.DataBlocks))
	seen := make(map[string]struct{})
	var pvs []string
	for i, b := range ds.DataBlocks {
		blocks[i] = "[" + DataBlockSummary(b) + "]"
		for _, pv := range b.PvNames {
			if _, ok := seen[pv]; !ok {
				seen[pv] = struct{}{}
				pvs = append(pvs, pv)
			}
		}
	}
	return &DatasetRow{DataSet: ds, Blocks: JoinList(blocks), PvNames: pvs}
}

// DatasetRows projects every record.
func DatasetRows(sets []models.DataSet) []*DatasetRow {
	out := make([]*DatasetRow, len(sets))
	for i, ds := range sets {
		out[i] = NewDatasetRow(ds)
	}
	return out
}

// DataBlockSummary renders a block as "pv1, pv2: begin -> end".
func DataBlockSummary(b models.DataBlock) string {
	pvs := "No PVs"
	if len(b.PvNames) > 0 {
		pvs = JoinList(b.PvNames)
	}
	if b.BeginTime.IsZero() && b.EndTime.IsZero() {
		return pvs + ": No time range"
	}
	return pvs + ": " + FormatTimestamp(b.BeginTime) + " -> " + FormatTimestamp(b.EndTime)
}

// DataSetSummary is the one-line description used by builder lists.
func DataSetSummary(ds models.DataSet) string {
	var b strings.Builder
	name := strings.TrimSpace(ds.Name)
	if name == "" {
		name = "Unnamed Dataset"
	}
	b.WriteString(name)
	b.WriteString(" - ")
	if desc := strings.TrimSpace(ds.Description); desc != "" {
		b.WriteString(Truncate(desc, 30))
	} else {
		b.WriteString("No description")
	}
	b.WriteString(" - ")
	if len(ds.DataBlocks) > 0 {
		b.WriteString(DataBlockSummary(ds.DataBlocks[0]))
	} else {
		b.WriteString("No data blocks")
	}
	return b.String()
}
