// Package generator synthesises PV data for the data generation view.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/dp-desktop/client/internal/models"
)

// DataType is the value type of a generated PV.
type DataType string

const (
	TypeInteger DataType = "integer"
	TypeFloat   DataType = "float"
	TypeBoolean DataType = "boolean"
	TypeString  DataType = "string"
)

// DataTypes lists the supported types in display order.
var DataTypes = []DataType{TypeInteger, TypeFloat, TypeBoolean, TypeString}

// DefaultSamplePeriodMs is the sample period offered for new PVs.
const DefaultSamplePeriodMs = 1000

// MaxSamples bounds the number of samples generated per PV.
const MaxSamples = 100_000

// PvDetail describes one generated PV. InitialValue and MaxStep are text as
// entered in the form.
type PvDetail struct {
	Name           string
	DataType       DataType
	SamplePeriodMs int
	InitialValue   string
	MaxStep        string
}

var (
	ErrNoPvs       = errors.New("at least one PV is required")
	ErrBadInterval = errors.New("begin time must be before end time")
)

// Validate checks the detail can be generated.
func (d PvDetail) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("PV name is required")
	}
	if d.SamplePeriodMs <= 0 {
		return fmt.Errorf("%s: sample period must be positive", d.Name)
	}
	switch d.DataType {
	case TypeInteger, TypeFloat:
		if _, err := strconv.ParseFloat(strings.TrimSpace(d.InitialValue), 64); err != nil {
			return fmt.Errorf("%s: initial value must be numeric", d.Name)
		}
		step, err := strconv.ParseFloat(strings.TrimSpace(d.MaxStep), 64)
		if err != nil || step < 0 {
			return fmt.Errorf("%s: max step must be a non-negative number", d.Name)
		}
	case TypeBoolean:
		if _, err := strconv.ParseBool(strings.TrimSpace(d.InitialValue)); err != nil {
			return fmt.Errorf("%s: initial value must be true or false", d.Name)
		}
	case TypeString:
	default:
		return fmt.Errorf("%s: unknown data type %q", d.Name, d.DataType)
	}
	return nil
}

// Generator produces random walks. It is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
}

// New creates a generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate builds one frame per PV, sampled every SamplePeriodMs from begin
// up to and excluding end.
func (g *Generator) Generate(begin, end time.Time, pvs []PvDetail) ([]models.DataFrame, error) {
	if len(pvs) == 0 {
		return nil, ErrNoPvs
	}
	if !begin.Before(end) {
		return nil, ErrBadInterval
	}

	frames := make([]models.DataFrame, 0, len(pvs))
	for _, pv := range pvs {
		if err := pv.Validate(); err != nil {
			return nil, err
		}
		period := time.Duration(pv.SamplePeriodMs) * time.Millisecond
		n := int(end.Sub(begin) / period)
		if end.Sub(begin)%period != 0 {
			n++
		}
		if n > MaxSamples {
			return nil, fmt.Errorf("%s: %d samples exceeds the limit of %d", pv.Name, n, MaxSamples)
		}

		timestamps := make([]models.Timestamp, n)
		for i := range timestamps {
			timestamps[i] = models.TimestampOf(begin.Add(time.Duration(i) * period))
		}
		frames = append(frames, models.DataFrame{
			Name:       strings.TrimSpace(pv.Name),
			Timestamps: timestamps,
			Columns: []models.DataColumn{{
				Name:   strings.TrimSpace(pv.Name),
				Values: g.walk(pv, n),
			}},
		})
	}
	return frames, nil
}

func (g *Generator) walk(pv PvDetail, n int) []models.DataValue {
	values := make([]models.DataValue, n)
	switch pv.DataType {
	case TypeInteger:
		v, _ := strconv.ParseFloat(strings.TrimSpace(pv.InitialValue), 64)
		step, _ := strconv.ParseFloat(strings.TrimSpace(pv.MaxStep), 64)
		cur, limit := int64(v), int64(step)
		for i := range values {
			values[i] = models.LongValue(cur)
			if limit > 0 {
				cur += g.rnd.Int63n(2*limit+1) - limit
			}
		}
	case TypeFloat:
		cur, _ := strconv.ParseFloat(strings.TrimSpace(pv.InitialValue), 64)
		step, _ := strconv.ParseFloat(strings.TrimSpace(pv.MaxStep), 64)
		for i := range values {
			values[i] = models.DoubleValue(cur)
			cur += (g.rnd.Float64()*2 - 1) * step
		}
	case TypeBoolean:
		cur, _ := strconv.ParseBool(strings.TrimSpace(pv.InitialValue))
		for i := range values {
			values[i] = models.BoolValue(cur)
			if g.rnd.Intn(4) == 0 {
				cur = !cur
			}
		}
	case TypeString:
		prefix := strings.TrimSpace(pv.InitialValue)
		if prefix == "" {
			prefix = pv.Name
		}
		for i := range values {
			values[i] = models.StringValue(fmt.Sprintf("%s-%d", prefix, i))
		}
	}
	return values
}
