package viewmodel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dp-desktop/client/internal/generator"
	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/task"
)

// DataGeneration synthesises PV data and ingests it.
type DataGeneration struct {
	Base

	Provider  *ProviderDetails
	Request   *RequestDetails
	BeginTime *reactive.Cell[time.Time]
	EndTime   *reactive.Cell[time.Time]
	PvDetails *reactive.List[generator.PvDetail]

	// Current PV entry.
	PvName         *reactive.Cell[string]
	PvDataType     *reactive.Cell[generator.DataType]
	PvSamplePeriod *reactive.Cell[int]
	PvInitialValue *reactive.Cell[string]
	PvMaxStep      *reactive.Cell[string]
	ShowPvEntry    *reactive.Cell[bool]

	Valid           *reactive.Derived[bool]
	GenerateEnabled *reactive.Derived[bool]

	// Seed feeds the value generator; zero seeds from the clock.
	Seed int64

	slot task.Slot
}

// NewDataGeneration creates the data generation view model. The window
// defaults to today through tomorrow.
func NewDataGeneration(env Env) *DataGeneration {
	presets := env.presets()
	today := midnight(time.Now())
	g := &DataGeneration{
		Base:           newBase("data-generation", env, "Ready to generate data"),
		Provider:       NewProviderDetails(presets.ProviderAttributes),
		Request:        NewRequestDetails(presets.RequestAttributes),
		BeginTime:      reactive.NewCell(today),
		EndTime:        reactive.NewCell(today.AddDate(0, 0, 1)),
		PvDetails:      reactive.NewList[generator.PvDetail](),
		PvName:         reactive.NewCell(""),
		PvDataType:     reactive.NewCell(generator.TypeInteger),
		PvSamplePeriod: reactive.NewCell(generator.DefaultSamplePeriodMs),
		PvInitialValue: reactive.NewCell(""),
		PvMaxStep:      reactive.NewCell(""),
		ShowPvEntry:    reactive.NewCell(false),
	}
	g.Valid = reactive.Derive(func() bool {
		return !Blank(g.Provider.Name.Get()) && g.PvDetails.Len() > 0 &&
			g.BeginTime.Get().Before(g.EndTime.Get())
	}, g.Provider.Name, g.PvDetails, g.BeginTime, g.EndTime)
	g.GenerateEnabled = reactive.Derive(func() bool {
		return g.Valid.Get() && !g.Busy.Get()
	}, g.Valid, g.Busy)
	return g
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ShowPvEntryPanel opens a cleared PV entry.
func (g *DataGeneration) ShowPvEntryPanel() {
	g.clearPvEntry()
	g.ShowPvEntry.Set(true)
}

// HidePvEntryPanel closes the PV entry.
func (g *DataGeneration) HidePvEntryPanel() {
	g.ShowPvEntry.Set(false)
}

func (g *DataGeneration) clearPvEntry() {
	g.PvName.Set("")
	g.PvDataType.Set(generator.TypeInteger)
	g.PvSamplePeriod.Set(generator.DefaultSamplePeriodMs)
	g.PvInitialValue.Set("")
	g.PvMaxStep.Set("")
}

// AddCurrentPvDetail appends the PV entry. Names are unique.
func (g *DataGeneration) AddCurrentPvDetail() bool {
	if Blank(g.PvName.Get()) || g.PvDataType.Get() == "" ||
		Blank(g.PvInitialValue.Get()) || Blank(g.PvMaxStep.Get()) {
		g.Status.Set("Please fill in all required PV fields")
		return false
	}
	detail := generator.PvDetail{
		Name:           strings.TrimSpace(g.PvName.Get()),
		DataType:       g.PvDataType.Get(),
		SamplePeriodMs: g.PvSamplePeriod.Get(),
		InitialValue:   strings.TrimSpace(g.PvInitialValue.Get()),
		MaxStep:        strings.TrimSpace(g.PvMaxStep.Get()),
	}
	if g.PvDetails.ContainsFunc(func(p generator.PvDetail) bool { return p.Name == detail.Name }) {
		g.Status.Set("PV with this name already exists")
		return false
	}
	if err := detail.Validate(); err != nil {
		g.Status.Set(err.Error())
		return false
	}
	g.PvDetails.Append(detail)
	g.logger.Infof("[DataGeneration] added PV %s", detail.Name)
	g.HidePvEntryPanel()
	return true
}

// RemovePvDetail drops the PV called name.
func (g *DataGeneration) RemovePvDetail(name string) bool {
	return g.PvDetails.RemoveFunc(func(p generator.PvDetail) bool { return p.Name == name }) > 0
}

// Generate registers the provider, generates the PV series and ingests
// them.
func (g *DataGeneration) Generate() {
	if !g.Valid.Get() {
		g.Status.Set("Please fill in all required fields")
		return
	}
	if !g.ready() {
		return
	}

	begin, end := g.BeginTime.Get(), g.EndTime.Get()
	pvs := g.PvDetails.Items()
	seed := g.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g.logger.Infof("[DataGeneration] generating %d PV(s) from %s to %s", len(pvs), begin, end)

	g.Status.Set("Generating data...")
	g.runIngestion(&g.slot, ingestion{
		op:       "Data generation",
		provider: g.Provider,
		request:  g.Request,
		frames: func(context.Context) ([]models.DataFrame, error) {
			frames, err := generator.New(seed).Generate(begin, end, pvs)
			if err != nil {
				return nil, fmt.Errorf("failed to generate data: %w", err)
			}
			return frames, nil
		},
		done: ". Navigate to Data Explorer to query the generated data.",
	})
}

// Cancel abandons a generation in flight.
func (g *DataGeneration) Cancel() {
	g.abort(&g.slot)
	g.Status.Set("Operation cancelled")
}
