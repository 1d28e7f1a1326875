package viewmodel

import (
	"strings"

	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/session"
)

// TagsList edits an ordered list of unique, trimmed tags.
type TagsList struct {
	Items *reactive.List[string]
}

// NewTagsList creates an empty list.
func NewTagsList() *TagsList {
	return &TagsList{Items: reactive.NewList[string]()}
}

// Add appends tag unless it is blank or present.
func (t *TagsList) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || reactive.Contains(t.Items, tag) {
		return false
	}
	t.Items.Append(tag)
	return true
}

// Remove deletes tag.
func (t *TagsList) Remove(tag string) bool {
	i := reactive.IndexOf(t.Items, tag)
	if i < 0 {
		return false
	}
	t.Items.RemoveAt(i)
	return true
}

// Clear empties the list.
func (t *TagsList) Clear() { t.Items.Clear() }

// Values returns a copy of the tags.
func (t *TagsList) Values() []string { return t.Items.Items() }

// AttributesList edits key=value attributes. Options offers suggested values
// per key.
type AttributesList struct {
	Items   *reactive.List[string]
	Options map[string][]string
}

// NewAttributesList creates an empty list with the given value suggestions.
func NewAttributesList(options map[string][]string) *AttributesList {
	if options == nil {
		options = map[string][]string{}
	}
	return &AttributesList{Items: reactive.NewList[string](), Options: options}
}

// Add appends key=value unless either half is blank or the attribute exists.
func (a *AttributesList) Add(key, value string) bool {
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" || strings.Contains(key, "=") {
		return false
	}
	attr := FormatAttribute(key, value)
	if reactive.Contains(a.Items, attr) {
		return false
	}
	a.Items.Append(attr)
	return true
}

// Remove deletes attr given in its key=value form.
func (a *AttributesList) Remove(attr string) bool {
	i := reactive.IndexOf(a.Items, attr)
	if i < 0 {
		return false
	}
	a.Items.RemoveAt(i)
	return true
}

// Clear empties the list.
func (a *AttributesList) Clear() { a.Items.Clear() }

// Values returns attribute strings in insertion order.
func (a *AttributesList) Values() []string { return a.Items.Items() }

// Map converts the list for the wire.
func (a *AttributesList) Map() map[string]string { return AttributesToMap(a.Items.Items()) }

// SuggestedValues returns the offered values for key.
func (a *AttributesList) SuggestedValues(key string) []string {
	return a.Options[key]
}

// ProviderDetails is the provider form shared by generation and import.
type ProviderDetails struct {
	Name        *reactive.Cell[string]
	Description *reactive.Cell[string]
	Tags        *TagsList
	Attributes  *AttributesList
}

// NewProviderDetails creates an empty provider form.
func NewProviderDetails(options map[string][]string) *ProviderDetails {
	return &ProviderDetails{
		Name:        reactive.NewCell(""),
		Description: reactive.NewCell(""),
		Tags:        NewTagsList(),
		Attributes:  NewAttributesList(options),
	}
}

// Clear resets every field.
func (p *ProviderDetails) Clear() {
	p.Name.Set("")
	p.Description.Set("")
	p.Tags.Clear()
	p.Attributes.Clear()
}

// RequestDetails is the ingestion request form.
type RequestDetails struct {
	EventName  *reactive.Cell[string]
	Tags       *TagsList
	Attributes *AttributesList
}

// NewRequestDetails creates an empty request form.
func NewRequestDetails(options map[string][]string) *RequestDetails {
	return &RequestDetails{
		EventName:  reactive.NewCell(""),
		Tags:       NewTagsList(),
		Attributes: NewAttributesList(options),
	}
}

// Clear resets every field.
func (r *RequestDetails) Clear() {
	r.EventName.Set("")
	r.Tags.Clear()
	r.Attributes.Clear()
}

// QueryPvs edits the App's PV selection on behalf of a screen.
type QueryPvs struct {
	app *session.App
}

// NewQueryPvs binds the component to app.
func NewQueryPvs(app *session.App) *QueryPvs {
	return &QueryPvs{app: app}
}

// Names is the App's observable PV list.
func (q *QueryPvs) Names() *reactive.List[string] { return q.app.PvNameList() }

// AddPvName adds name to the App's PV list.
func (q *QueryPvs) AddPvName(name string) bool { return q.app.AddPvName(name) }

// RemovePvName removes name from the App's PV list.
func (q *QueryPvs) RemovePvName(name string) bool { return q.app.RemovePvName(name) }
