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

// ProviderExplore searches providers.
type ProviderExplore struct {
	Base

	ID             *reactive.Cell[string]
	Text           *reactive.Cell[string]
	Tag            *reactive.Cell[string]
	AttributeKey   *reactive.Cell[string]
	AttributeValue *reactive.Cell[string]
	Results        *reactive.List[*rows.ProviderRow]

	SearchEnabled *reactive.Derived[bool]

	// searched is the provider id of the last SearchFor.
	searched string
	slot     task.Slot
}

// NewProviderExplore creates the provider explore view model.
func NewProviderExplore(env Env) *ProviderExplore {
	p := &ProviderExplore{
		Base:           newBase("provider-explore", env, "Ready to search for providers"),
		ID:             reactive.NewCell(""),
		Text:           reactive.NewCell(""),
		Tag:            reactive.NewCell(""),
		AttributeKey:   reactive.NewCell(""),
		AttributeValue: reactive.NewCell(""),
		Results:        reactive.NewList[*rows.ProviderRow](),
	}
	p.SearchEnabled = reactive.Derive(func() bool {
		return !p.Criteria().IsEmpty() && !p.Busy.Get()
	}, p.ID, p.Text, p.Tag, p.AttributeKey, p.AttributeValue, p.Busy)
	return p
}

// Criteria maps the form to the query; blank fields become nil.
func (p *ProviderExplore) Criteria() models.ProviderCriteria {
	return models.ProviderCriteria{
		ID:             Optional(p.ID.Get()),
		Text:           Optional(p.Text.Get()),
		Tag:            Optional(p.Tag.Get()),
		AttributeKey:   Optional(p.AttributeKey.Get()),
		AttributeValue: Optional(p.AttributeValue.Get()),
	}
}

// Search runs the provider query, superseding any search in flight.
func (p *ProviderExplore) Search() {
	c := p.Criteria()
	if c.IsEmpty() {
		p.Status.Set(msgNoCriteria)
		return
	}
	if !p.ready() {
		return
	}

	p.Results.Clear()
	p.Status.Set("Searching providers...")
	launch(&p.Base, &p.slot, "Search",
		func(ctx context.Context, app *session.App) ([]models.Provider, models.ResultStatus) {
			res := app.QueryProviders(ctx, c)
			return res.Providers, res.Status
		},
		func(providers []models.Provider, _ models.ResultStatus) {
			p.Results.SetAll(rows.ProviderRows(providers))
			p.Status.Set(fmt.Sprintf("Found %d provider(s)", len(providers)))
		}, nil)
}

// SearchFor replaces the criteria with a provider id and searches. Asking
// again for the id already searched does nothing; it reports whether a
// search started.
func (p *ProviderExplore) SearchFor(providerID string) bool {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" || (providerID == p.searched && p.ID.Get() == providerID) {
		return false
	}
	p.searched = providerID
	p.ID.Set(providerID)
	p.Text.Set("")
	p.Tag.Set("")
	p.AttributeKey.Set("")
	p.AttributeValue.Set("")
	p.Search()
	return true
}

// Clear resets the criteria and results.
func (p *ProviderExplore) Clear() {
	p.abort(&p.slot)
	p.searched = ""
	p.ID.Set("")
	p.Text.Set("")
	p.Tag.Set("")
	p.AttributeKey.Set("")
	p.AttributeValue.Set("")
	p.Results.Clear()
	p.Status.Set("Search cleared")
}
