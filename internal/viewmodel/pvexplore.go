package viewmodel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/rows"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/task"
)

// SearchMode selects how PV explore reads its search text.
type SearchMode int

const (
	// SearchByNameList treats the text as comma separated PV names.
	SearchByNameList SearchMode = iota
	// SearchByPattern treats the text as a name pattern.
	SearchByPattern
)

// PvExplore searches PV metadata and forwards chosen PVs to the query list.
type PvExplore struct {
	Base

	SearchText *reactive.Cell[string]
	Mode       *reactive.Cell[SearchMode]
	Results    *reactive.List[*rows.PvInfoRow]

	SearchEnabled *reactive.Derived[bool]

	slot task.Slot
}

// NewPvExplore creates the PV explore view model.
func NewPvExplore(env Env) *PvExplore {
	p := &PvExplore{
		Base:       newBase("pv-explore", env, "Ready"),
		SearchText: reactive.NewCell(""),
		Mode:       reactive.NewCell(SearchByNameList),
		Results:    reactive.NewList[*rows.PvInfoRow](),
	}
	p.SearchEnabled = reactive.Derive(func() bool {
		return !Blank(p.SearchText.Get()) && !p.Busy.Get()
	}, p.SearchText, p.Busy)
	return p
}

// Query returns the metadata query for the current text and mode.
func (p *PvExplore) Query() models.PvMetadataQuery {
	if p.Mode.Get() == SearchByPattern {
		return models.PvMetadataQuery{Pattern: strings.TrimSpace(p.SearchText.Get())}
	}
	return models.PvMetadataQuery{Names: SplitNames(p.SearchText.Get())}
}

// Search runs the metadata query, superseding any search in flight.
func (p *PvExplore) Search() {
	if !p.ready() {
		return
	}
	q := p.Query()
	if len(q.Names) == 0 && q.Pattern == "" {
		p.Status.Set("Please enter search text")
		return
	}

	p.Results.Clear()
	p.Status.Set("Searching for PV metadata...")
	launch(&p.Base, &p.slot, "Search",
		func(ctx context.Context, app *session.App) ([]models.PvInfo, models.ResultStatus) {
			res := app.QueryPvMetadata(ctx, q)
			return res.PvInfos, res.Status
		},
		func(infos []models.PvInfo, _ models.ResultStatus) {
			p.Results.SetAll(rows.PvInfoRows(infos))
			if len(infos) == 0 {
				p.Status.Set("Search completed but no results found")
				return
			}
			p.Status.Set(fmt.Sprintf("Found %d matching PV(s)", len(infos)))
		}, nil)
}

// SelectAll sets every row checkbox to selected.
func (p *PvExplore) SelectAll(selected bool) {
	for _, r := range p.Results.Items() {
		r.Selected.Set(selected)
	}
}

// Selected returns the checked rows.
func (p *PvExplore) Selected() []*rows.PvInfoRow {
	var out []*rows.PvInfoRow
	for _, r := range p.Results.Items() {
		if r.Selected.Get() {
			out = append(out, r)
		}
	}
	return out
}

// AddSelected adds the checked PVs to the App's PV list and clears the
// checkboxes.
func (p *PvExplore) AddSelected() {
	if !p.ready() {
		return
	}
	qp := NewQueryPvs(p.env.App)
	added := 0
	for _, r := range p.Selected() {
		if qp.AddPvName(r.Info.PvName) {
			added++
		}
		r.Selected.Set(false)
	}
	p.Status.Set(fmt.Sprintf("Added %d PV name(s) to query list", added))
}

// AddPvName adds a single PV to the App's PV list.
func (p *PvExplore) AddPvName(name string) {
	if !p.ready() {
		return
	}
	if NewQueryPvs(p.env.App).AddPvName(name) {
		p.Status.Set("Added " + strings.TrimSpace(name) + " to query list")
	}
}

// OpenProvider shows the provider of a result row.
func (p *PvExplore) OpenProvider(providerID string) {
	if nav, ok := p.navigator(); ok && !Blank(providerID) {
		nav.NavigateToProviderExploreWithSearch(providerID)
	}
}
