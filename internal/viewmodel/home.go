package viewmodel

import (
	"github.com/dp-desktop/client/internal/reactive"
)

const (
	hintStart   = "Start by generating or importing data: open Data Generation or Data Import."
	hintIngest  = "Data ingested. Open Data Explore to query it, or PV Explore to browse PV metadata."
	hintQueried = "Query results are available. Build datasets and annotations from Data Explore."
)

// Home drives the landing view: a status line, usage hints and details of
// the last operation reported by another view.
type Home struct {
	Base

	Hints   *reactive.Derived[string]
	Details *reactive.Cell[string]
}

// NewHome creates the home view model.
func NewHome(env Env) *Home {
	h := &Home{
		Base:    newBase("home", env, "Ready"),
		Details: reactive.NewCell(""),
	}
	if env.App == nil {
		h.Hints = reactive.Derive(func() string { return hintStart })
		return h
	}
	ingested, queried := env.App.HasIngestedData(), env.App.HasQueriedData()
	h.Hints = reactive.Derive(func() string {
		switch {
		case queried.Get():
			return hintQueried
		case ingested.Get():
			return hintIngest
		default:
			return hintStart
		}
	}, ingested, queried)
	return h
}

// OnDataGenerationSuccess records a completed generation or import.
func (h *Home) OnDataGenerationSuccess(message string) {
	h.Status.Set("Data ingestion succeeded")
	h.Details.Set(message)
	h.logger.Infof("[Home] ingestion success: %s", message)
}

// OnQuerySuccess records a completed query.
func (h *Home) OnQuerySuccess(message string) {
	h.Status.Set("Query succeeded")
	h.Details.Set(message)
}

// ResetApplicationState clears the session selections and the home text.
func (h *Home) ResetApplicationState() {
	if h.env.App != nil {
		h.env.App.ResetApplicationState()
	}
	h.Status.Set("Ready")
	h.Details.Set("")
}
