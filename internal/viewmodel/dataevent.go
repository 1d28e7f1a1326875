package viewmodel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/rows"
	"github.com/dp-desktop/client/internal/task"
)

// SubscriptionState is the lifecycle of one subscription entry.
type SubscriptionState int

const (
	SubscriptionIdle SubscriptionState = iota
	SubscriptionAdding
	SubscriptionActive
	SubscriptionCancelling
	SubscriptionTerminated
)

func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionAdding:
		return "Adding"
	case SubscriptionActive:
		return "Active"
	case SubscriptionCancelling:
		return "Cancelling"
	case SubscriptionTerminated:
		return "Terminated"
	default:
		return "Idle"
	}
}

// EventWindow is how far either side of an event the query editor looks.
const EventWindow = 30 * time.Second

// Subscription is one entry of the subscription list.
type Subscription struct {
	Descriptor models.SubscriptionDescriptor
	State      *reactive.Cell[SubscriptionState]
}

// DisplayString renders the descriptor.
func (s *Subscription) DisplayString() string {
	return s.Descriptor.DisplayString()
}

type subscriptionForm struct {
	pvName    string
	condition models.TriggerCondition
	value     string
	dataType  models.PvDataType
}

// DataEventExplore manages data event subscriptions and shows the events of
// the selected one.
type DataEventExplore struct {
	Base

	PvName    *reactive.Cell[string]
	Condition *reactive.Cell[models.TriggerCondition]
	Value     *reactive.Cell[string]
	DataType  *reactive.Cell[models.PvDataType]

	Subscriptions *reactive.List[*Subscription]
	Selected      *reactive.Cell[*Subscription]
	Events        *reactive.List[*rows.EventRow]

	// Adding is raised while a subscribe request is in flight.
	Adding     *reactive.Cell[bool]
	Valid      *reactive.Derived[bool]
	AddEnabled *reactive.Derived[bool]

	stop []func()
}

// NewDataEventExplore creates the view model and lists the subscriptions
// already open in the App.
func NewDataEventExplore(env Env) *DataEventExplore {
	d := &DataEventExplore{
		Base:          newBase("data-event-explore", env, ""),
		PvName:        reactive.NewCell(""),
		Condition:     reactive.NewCell(models.TriggerCondition("")),
		Value:         reactive.NewCell(""),
		DataType:      reactive.NewCell(models.PvDataType("")),
		Subscriptions: reactive.NewList[*Subscription](),
		Selected:      reactive.NewCell[*Subscription](nil),
		Events:        reactive.NewList[*rows.EventRow](),
		Adding:        reactive.NewCell(false),
	}
	d.Valid = reactive.Derive(func() bool {
		return !Blank(d.PvName.Get()) && d.Condition.Get().Valid() &&
			!Blank(d.Value.Get()) && d.DataType.Get().Valid()
	}, d.PvName, d.Condition, d.Value, d.DataType)
	d.AddEnabled = reactive.Derive(func() bool {
		return d.Valid.Get() && !d.Adding.Get()
	}, d.Valid, d.Adding)

	if env.App != nil {
		for _, desc := range env.App.Subscriptions().Items() {
			d.Subscriptions.Append(d.newEntry(desc, SubscriptionActive))
		}
		d.stop = append(d.stop,
			env.App.Subscriptions().Subscribe(d.onAppSubscriptions),
			env.App.OnDataEvents(d.onEvents))
	}
	return d
}

func (d *DataEventExplore) newEntry(desc models.SubscriptionDescriptor, state SubscriptionState) *Subscription {
	return &Subscription{Descriptor: desc, State: reactive.NewCell(state)}
}

func (d *DataEventExplore) entry(desc models.SubscriptionDescriptor) (int, *Subscription) {
	i := d.Subscriptions.IndexFunc(func(s *Subscription) bool { return s.Descriptor == desc })
	if i < 0 {
		return -1, nil
	}
	return i, d.Subscriptions.At(i)
}

// onAppSubscriptions follows the App's registrations. Streams the server
// ended on its own disappear from the App while still Active here. Adding
// and Cancelling entries are settled by their command callbacks.
func (d *DataEventExplore) onAppSubscriptions(c reactive.ListChange[models.SubscriptionDescriptor]) {
	for _, desc := range c.Removed {
		i, sub := d.entry(desc)
		if sub == nil || sub.State.Get() != SubscriptionActive {
			continue
		}
		d.logger.Infof("[DataEvent] %s ended by server", desc.DisplayString())
		d.terminate(i, sub)
	}
	for _, desc := range c.Added {
		if _, sub := d.entry(desc); sub == nil {
			d.Subscriptions.Append(d.newEntry(desc, SubscriptionActive))
		}
	}
}

func (d *DataEventExplore) onEvents(desc models.SubscriptionDescriptor, events []models.DataEvent) {
	if sel := d.Selected.Get(); sel != nil && sel.Descriptor == desc {
		d.Events.Append(rows.EventRows(events)...)
	}
}

func (d *DataEventExplore) snapshot() subscriptionForm {
	return subscriptionForm{
		pvName:    d.PvName.Get(),
		condition: d.Condition.Get(),
		value:     d.Value.Get(),
		dataType:  d.DataType.Get(),
	}
}

func (d *DataEventExplore) restore(f subscriptionForm) {
	d.PvName.Set(f.pvName)
	d.Condition.Set(f.condition)
	d.Value.Set(f.value)
	d.DataType.Set(f.dataType)
}

// ClearForm empties the subscription form.
func (d *DataEventExplore) ClearForm() {
	d.restore(subscriptionForm{})
}

// AddSubscription subscribes with the form contents.
func (d *DataEventExplore) AddSubscription() {
	if d.env.App == nil || d.env.Runner == nil || !d.Valid.Get() {
		d.Status.Set("Cannot add subscription: form is invalid or application not initialized")
		return
	}
	if d.Adding.Get() {
		return
	}

	form := d.snapshot()
	desc := models.SubscriptionDescriptor{
		PvName:    strings.TrimSpace(form.pvName),
		Condition: form.condition,
		Value:     strings.TrimSpace(form.value),
		DataType:  form.dataType,
	}
	if _, existing := d.entry(desc); existing != nil {
		d.Status.Set("Failed to add subscription: Subscription already exists: " + desc.DisplayString())
		return
	}

	sub := d.newEntry(desc, SubscriptionAdding)
	d.Subscriptions.Append(sub)
	d.Adding.Set(true)
	d.Status.Set("Adding data event subscription...")

	app := d.env.App
	task.Run(d.env.Runner, "AddSubscription",
		func(ctx context.Context, _ *task.Task) (models.ResultStatus, error) {
			return app.SubscribeDataEvent(ctx, desc, desc.DataType), nil
		},
		func(st models.ResultStatus) {
			d.Adding.Set(false)
			if st.IsError {
				d.addFailed(sub, form, st.Message)
				return
			}
			d.ClearForm()
			if !reactive.Contains(app.Subscriptions(), desc) {
				// The stream ended before the add completed.
				if i, found := d.entry(desc); found == sub {
					d.terminate(i, sub)
				}
				d.Status.Set("Subscription ended by server: " + desc.DisplayString())
				return
			}
			sub.State.Set(SubscriptionActive)
			d.Status.Set("Subscription added successfully")
		},
		func(err error) {
			d.Adding.Set(false)
			d.addFailed(sub, form, err.Error())
		})
}

func (d *DataEventExplore) addFailed(sub *Subscription, form subscriptionForm, msg string) {
	d.Subscriptions.RemoveFunc(func(s *Subscription) bool { return s == sub })
	sub.State.Set(SubscriptionIdle)
	d.restore(form)
	d.Status.Set("Failed to add subscription: " + msg)
}

// CancelSubscription ends sub's stream.
func (d *DataEventExplore) CancelSubscription(sub *Subscription) {
	if !d.ready() {
		return
	}
	if sub == nil || sub.State.Get() != SubscriptionActive {
		return
	}

	sub.State.Set(SubscriptionCancelling)
	d.Status.Set("Canceling subscription...")

	app := d.env.App
	desc := sub.Descriptor
	task.Run(d.env.Runner, "CancelSubscription",
		func(ctx context.Context, _ *task.Task) (models.ResultStatus, error) {
			return app.CancelDataEventSubscription(ctx, desc), nil
		},
		func(st models.ResultStatus) {
			if st.IsError {
				d.cancelFailed(sub, st.Message)
				return
			}
			if i, found := d.entry(desc); found == sub {
				d.terminate(i, sub)
			}
			d.Status.Set("Subscription canceled successfully")
		},
		func(err error) {
			d.cancelFailed(sub, err.Error())
		})
}

func (d *DataEventExplore) cancelFailed(sub *Subscription, msg string) {
	d.Status.Set("Failed to cancel subscription: " + msg)
	if sub.State.Get() != SubscriptionCancelling {
		return
	}
	if d.env.App != nil && !reactive.Contains(d.env.App.Subscriptions(), sub.Descriptor) {
		// The stream broke during the cancel and is no longer registered.
		if i, found := d.entry(sub.Descriptor); found == sub {
			d.terminate(i, sub)
		}
		return
	}
	sub.State.Set(SubscriptionActive)
}

// terminate drops the entry at i and clears the events table if it showed
// that entry.
func (d *DataEventExplore) terminate(i int, sub *Subscription) {
	sub.State.Set(SubscriptionTerminated)
	d.Subscriptions.RemoveAt(i)
	if d.Selected.Get() == sub {
		d.Selected.Set(nil)
		d.Events.Clear()
	}
}

// Select shows the buffered events of sub.
func (d *DataEventExplore) Select(sub *Subscription) {
	if !d.ready() {
		return
	}
	d.Selected.Set(sub)
	if sub == nil {
		d.Events.Clear()
		return
	}
	events := d.env.App.DataEventsForSubscription(sub.Descriptor)
	d.Events.SetAll(rows.EventRows(events))
	d.Status.Set(fmt.Sprintf("Loaded %d events for subscription: %s", len(events), sub.DisplayString()))
}

// OpenEvent points the query editor at the selected PV around the event
// time and switches to it.
func (d *DataEventExplore) OpenEvent(ev models.DataEvent) {
	if !d.ready() {
		return
	}
	nav, ok := d.navigator()
	if !ok {
		return
	}
	sel := d.Selected.Get()
	if sel == nil {
		d.Status.Set("No subscription selected for navigation")
		return
	}

	pv := sel.Descriptor.PvName
	at := ev.EventTime.Time()
	app := d.env.App
	app.SetPvNames([]string{pv})
	app.SetDataBeginTime(at.Add(-EventWindow))
	app.SetDataEndTime(at.Add(EventWindow))

	if err := nav.SwitchTo(ViewDataExplore); err != nil {
		d.Status.Set("Navigation failed: " + err.Error())
		return
	}
	d.Status.Set(fmt.Sprintf("Navigated to Query Editor with event data for %s at %s", pv, rows.FormatTime(at)))
}

// Close detaches the view model from the App.
func (d *DataEventExplore) Close() {
	for _, stop := range d.stop {
		stop()
	}
	d.stop = nil
}
