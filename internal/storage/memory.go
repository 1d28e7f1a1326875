// Package storage holds the simulator's data platform state in memory.
package storage

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dp-desktop/client/internal/models"
)

var (
	// ErrNotFound reports a reference to an unknown record.
	ErrNotFound = errors.New("not found")
	// ErrInvalid reports a request the store rejects.
	ErrInvalid = errors.New("invalid request")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Sample is one timestamped value of a PV.
type Sample struct {
	Time  models.Timestamp
	Value models.DataValue
}

func nanos(ts models.Timestamp) int64 {
	return ts.EpochSeconds*int64(time.Second) + ts.Nanoseconds
}

type series struct {
	kind         models.ValueKind
	providerID   string
	samples      []Sample
	buckets      int
	samplePeriod int64
}

// Store is the data platform as seen by the simulator handlers.
type Store interface {
	RegisterProvider(p models.Provider) (models.Provider, bool, error)
	Providers(c models.ProviderCriteria) []models.Provider
	Ingest(req models.IngestRequest) (models.IngestStats, error)
	PvInfos(q models.PvMetadataQuery) ([]models.PvInfo, error)
	Table(q models.DataQuery) (models.DataFrame, error)
	Latest(pv string) (Sample, bool)
	SaveDataSet(ds models.DataSet) (string, error)
	DataSets(c models.DataSetCriteria) []models.DataSet
	SaveAnnotation(an models.Annotation) (string, error)
	Annotations(c models.AnnotationCriteria) []models.Annotation
}

// MemoryStore implements Store with maps guarded by one lock.
type MemoryStore struct {
	mu          sync.RWMutex
	providers   map[string]*models.Provider
	byName      map[string]string
	series      map[string]*series
	dataSets    map[string]models.DataSet
	annotations map[string]models.Annotation
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		providers:   make(map[string]*models.Provider),
		byName:      make(map[string]string),
		series:      make(map[string]*series),
		dataSets:    make(map[string]models.DataSet),
		annotations: make(map[string]models.Annotation),
	}
}

var _ Store = (*MemoryStore)(nil)

// RegisterProvider registers p by name. A known name returns the existing
// provider with its details updated.
func (s *MemoryStore) RegisterProvider(p models.Provider) (models.Provider, bool, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return models.Provider{}, false, invalid("provider name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[p.Name]; ok {
		existing := s.providers[id]
		existing.Description = p.Description
		existing.Tags = p.Tags
		existing.Attributes = p.Attributes
		return *existing, false, nil
	}

	p.ID = uuid.New().String()
	p.LastIngestion = nil
	s.providers[p.ID] = &p
	s.byName[p.Name] = p.ID
	return p, true, nil
}

// Providers returns the providers matching c, ordered by name.
func (s *MemoryStore) Providers(c models.ProviderCriteria) []models.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Provider
	for _, p := range s.providers {
		if c.ID != nil && p.ID != *c.ID {
			continue
		}
		if c.Text != nil && !containsFold(p.Name+" "+p.Description, *c.Text) {
			continue
		}
		if c.Tag != nil && !slices.Contains(p.Tags, *c.Tag) {
			continue
		}
		if !matchAttributes(p.Attributes, c.AttributeKey, c.AttributeValue) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Ingest appends the frames of req to the series of the named PVs. A PV
// keeps the value kind it was first ingested with.
func (s *MemoryStore) Ingest(req models.IngestRequest) (models.IngestStats, error) {
	if len(req.Frames) == 0 {
		return models.IngestStats{}, invalid("no data frames")
	}
	for _, f := range req.Frames {
		for _, col := range f.Columns {
			if strings.TrimSpace(col.Name) == "" {
				return models.IngestStats{}, invalid("frame %s has a column without a name", f.Name)
			}
			if len(col.Values) != len(f.Timestamps) {
				return models.IngestStats{}, invalid("column %s has %d values for %d timestamps", col.Name, len(col.Values), len(f.Timestamps))
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	provider, ok := s.providers[req.ProviderID]
	if !ok {
		return models.IngestStats{}, fmt.Errorf("%w: provider %s", ErrNotFound, req.ProviderID)
	}

	stats := models.IngestStats{RequestID: req.RequestID, FrameCount: len(req.Frames)}
	touched := make(map[string]struct{})
	for _, f := range req.Frames {
		period := regularPeriod(f.Timestamps)
		for _, col := range f.Columns {
			ser := s.series[col.Name]
			if ser == nil {
				ser = &series{}
				s.series[col.Name] = ser
			}
			if len(col.Values) > 0 && ser.kind == "" {
				ser.kind = col.Values[0].Kind
			}
			ser.providerID = provider.ID
			ser.buckets++
			ser.samplePeriod = period
			for i, v := range col.Values {
				ser.samples = append(ser.samples, Sample{Time: f.Timestamps[i], Value: v})
			}
			sort.SliceStable(ser.samples, func(i, j int) bool {
				return nanos(ser.samples[i].Time) < nanos(ser.samples[j].Time)
			})
			stats.ValueCount += len(col.Values)
			touched[col.Name] = struct{}{}
		}
	}
	stats.PvCount = len(touched)

	now := models.TimestampOf(time.Now())
	provider.LastIngestion = &now
	return stats, nil
}

// regularPeriod returns the spacing of ts in nanoseconds, or 0 when the
// spacing is not constant.
func regularPeriod(ts []models.Timestamp) int64 {
	if len(ts) < 2 {
		return 0
	}
	period := nanos(ts[1]) - nanos(ts[0])
	for i := 2; i < len(ts); i++ {
		if nanos(ts[i])-nanos(ts[i-1]) != period {
			return 0
		}
	}
	return period
}

// PvInfos describes the PVs selected by q, ordered by name.
func (s *MemoryStore) PvInfos(q models.PvMetadataQuery) ([]models.PvInfo, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var re *regexp.Regexp
	if q.Pattern != "" {
		var err error
		if re, err = regexp.Compile(q.Pattern); err != nil {
			return nil, invalid("bad pattern %q: %v", q.Pattern, err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	if re != nil {
		for name := range s.series {
			if re.MatchString(name) {
				names = append(names, name)
			}
		}
	} else {
		for _, name := range q.Names {
			if _, ok := s.series[name]; ok && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	out := make([]models.PvInfo, 0, len(names))
	for _, name := range names {
		out = append(out, s.pvInfo(name, s.series[name]))
	}
	return out, nil
}

func (s *MemoryStore) pvInfo(name string, ser *series) models.PvInfo {
	info := models.PvInfo{
		PvName:            name,
		LastProviderID:    ser.providerID,
		DataType:          strings.ToUpper(string(ser.kind)),
		TimestampsType:    "LIST",
		SamplePeriodNanos: ser.samplePeriod,
		NumBuckets:        ser.buckets,
	}
	if ser.samplePeriod > 0 {
		info.TimestampsType = "SAMPLE_CLOCK"
	}
	if p, ok := s.providers[ser.providerID]; ok {
		info.LastProviderName = p.Name
	}
	if n := len(ser.samples); n > 0 {
		first, last := ser.samples[0].Time, ser.samples[n-1].Time
		info.FirstDataTimestamp = &first
		info.LastDataTimestamp = &last
	}
	return info
}

// Table returns the values of q.PvNames in [BeginTime, EndTime) as one
// frame. Rows are the union of the PVs' timestamps; a PV without a value at
// a row gets an empty string value.
func (s *MemoryStore) Table(q models.DataQuery) (models.DataFrame, error) {
	if len(q.PvNames) == 0 {
		return models.DataFrame{}, invalid("at least one PV name is required")
	}
	begin, end := nanos(q.BeginTime), nanos(q.EndTime)
	if begin >= end {
		return models.DataFrame{}, invalid("begin time must be before end time")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make(map[int64]models.Timestamp)
	cells := make([]map[int64]models.DataValue, len(q.PvNames))
	for i, name := range q.PvNames {
		ser, ok := s.series[name]
		if !ok {
			return models.DataFrame{}, fmt.Errorf("%w: PV %s", ErrNotFound, name)
		}
		cells[i] = make(map[int64]models.DataValue)
		for _, smp := range ser.samples {
			n := nanos(smp.Time)
			if n < begin || n >= end {
				continue
			}
			rows[n] = smp.Time
			cells[i][n] = smp.Value
		}
	}

	keys := make([]int64, 0, len(rows))
	for n := range rows {
		keys = append(keys, n)
	}
	slices.Sort(keys)

	frame := models.DataFrame{Name: "query", Timestamps: make([]models.Timestamp, len(keys))}
	for i, n := range keys {
		frame.Timestamps[i] = rows[n]
	}
	for i, name := range q.PvNames {
		col := models.DataColumn{Name: name, Values: make([]models.DataValue, len(keys))}
		for j, n := range keys {
			v, ok := cells[i][n]
			if !ok {
				v = models.StringValue("")
			}
			col.Values[j] = v
		}
		frame.Columns = append(frame.Columns, col)
	}
	return frame, nil
}

// Latest returns the most recent sample of pv.
func (s *MemoryStore) Latest(pv string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ser, ok := s.series[pv]
	if !ok || len(ser.samples) == 0 {
		return Sample{}, false
	}
	return ser.samples[len(ser.samples)-1], true
}

// SaveDataSet creates ds, or replaces the dataset with its id.
func (s *MemoryStore) SaveDataSet(ds models.DataSet) (string, error) {
	if strings.TrimSpace(ds.Name) == "" {
		return "", invalid("dataset name is required")
	}
	if len(ds.DataBlocks) == 0 {
		return "", invalid("dataset must contain at least one data block")
	}
	for _, b := range ds.DataBlocks {
		if len(b.PvNames) == 0 {
			return "", invalid("data block has no PVs")
		}
		if !b.BeginTime.Before(b.EndTime) {
			return "", invalid("data block begin time must be before end time")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	} else if _, ok := s.dataSets[ds.ID]; !ok {
		return "", fmt.Errorf("%w: dataset %s", ErrNotFound, ds.ID)
	}
	s.dataSets[ds.ID] = ds
	return ds.ID, nil
}

// DataSets returns the datasets matching c, ordered by name then id.
func (s *MemoryStore) DataSets(c models.DataSetCriteria) []models.DataSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DataSet
	for _, ds := range s.dataSets {
		if c.ID != nil && ds.ID != *c.ID {
			continue
		}
		if c.Owner != nil && ds.OwnerID != *c.Owner {
			continue
		}
		if c.NameDescription != nil && !containsFold(ds.Name+" "+ds.Description, *c.NameDescription) {
			continue
		}
		if c.PvName != nil && !dataSetHasPv(ds, *c.PvName) {
			continue
		}
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func dataSetHasPv(ds models.DataSet, pv string) bool {
	for _, b := range ds.DataBlocks {
		if slices.Contains(b.PvNames, pv) {
			return true
		}
	}
	return false
}

// SaveAnnotation creates an, or replaces the annotation with its id. Every
// referenced dataset and annotation must exist.
func (s *MemoryStore) SaveAnnotation(an models.Annotation) (string, error) {
	if strings.TrimSpace(an.Name) == "" {
		return "", invalid("annotation name is required")
	}
	if len(an.DataSetIDs) == 0 {
		return "", invalid("annotation must reference at least one dataset")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range an.DataSetIDs {
		if _, ok := s.dataSets[id]; !ok {
			return "", fmt.Errorf("%w: dataset %s", ErrNotFound, id)
		}
	}
	for _, id := range an.AnnotationIDs {
		if _, ok := s.annotations[id]; !ok {
			return "", fmt.Errorf("%w: annotation %s", ErrNotFound, id)
		}
	}
	if an.ID == "" {
		an.ID = uuid.New().String()
	} else if _, ok := s.annotations[an.ID]; !ok {
		return "", fmt.Errorf("%w: annotation %s", ErrNotFound, an.ID)
	}
	s.annotations[an.ID] = an
	return an.ID, nil
}

// Annotations returns the annotations matching c, ordered by name then id.
func (s *MemoryStore) Annotations(c models.AnnotationCriteria) []models.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Annotation
	for _, an := range s.annotations {
		if c.ID != nil && an.ID != *c.ID {
			continue
		}
		if c.Owner != nil && an.OwnerID != *c.Owner {
			continue
		}
		if c.RelatedDataSet != nil && !slices.Contains(an.DataSetIDs, *c.RelatedDataSet) {
			continue
		}
		if c.RelatedAnnotation != nil && !slices.Contains(an.AnnotationIDs, *c.RelatedAnnotation) {
			continue
		}
		if c.NameCommentEvent != nil && !containsFold(annotationText(an), *c.NameCommentEvent) {
			continue
		}
		if c.Tag != nil && !slices.Contains(an.Tags, *c.Tag) {
			continue
		}
		if !matchAttributes(an.Attributes, c.AttributeKey, c.AttributeValue) {
			continue
		}
		out = append(out, an)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func annotationText(an models.Annotation) string {
	text := an.Name + " " + an.Comment
	if an.Event != nil {
		text += " " + an.Event.Description
	}
	return text
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// matchAttributes applies the optional key and value criteria. A value
// without a key matches any attribute holding that value.
func matchAttributes(attrs map[string]string, key, value *string) bool {
	switch {
	case key != nil && value != nil:
		v, ok := attrs[*key]
		return ok && v == *value
	case key != nil:
		_, ok := attrs[*key]
		return ok
	case value != nil:
		for _, v := range attrs {
			if v == *value {
				return true
			}
		}
		return false
	}
	return true
}
