package rows

import (
	"slices"

	"github.com/dp-desktop/client/internal/models"
)

// AnnotationRow is one row of the annotation explore results. List columns
// that render as hyperlinks are kept both joined and parsed.
type AnnotationRow struct {
	Annotation models.Annotation

	DataSets          string
	DataSetIDs        []string
	Annotations       string
	AnnotationIDs     []string
	Tags              string
	Attributes        string
	Event             string
	CalculationFrames string
	FrameNames        []string
}

// NewAnnotationRow projects an into a row.
func NewAnnotationRow(an models.Annotation) *AnnotationRow {
	names := make([]string, len(an.CalculationFrames))
	for i, f := range an.CalculationFrames {
		names[i] = f.Name
	}
	row := &AnnotationRow{
		Annotation:        an,
		DataSets:          JoinList(an.DataSetIDs),
		Annotations:       JoinList(an.AnnotationIDs),
		Tags:              JoinList(an.Tags),
		Attributes:        FormatAttributes(an.Attributes),
		CalculationFrames: JoinList(names),
		DataSetIDs:        slices.Clone(an.DataSetIDs),
		AnnotationIDs:     slices.Clone(an.AnnotationIDs),
		FrameNames:        names,
	}
	if an.Event != nil {
		row.Event = an.Event.Description
	}
	return row
}

// AnnotationRows projects every record.
func AnnotationRows(annotations []models.Annotation) []*AnnotationRow {
	out := make([]*AnnotationRow, len(annotations))
	for i, an := range annotations {
		out[i] = NewAnnotationRow(an)
	}
	return out
}

// CalculationFrame looks up a calculation frame by name.
func (r *AnnotationRow) CalculationFrame(name string) (models.DataFrame, bool) {
	for _, f := range r.Annotation.CalculationFrames {
		if f.Name == name {
			return f, true
		}
	}
	return models.DataFrame{}, false
}
