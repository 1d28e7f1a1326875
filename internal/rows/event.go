package rows

import "github.com/dp-desktop/client/internal/models"

// EventRow is one row of the data event table.
type EventRow struct {
	Event     models.DataEvent
	EventTime string
	Value     string
}

// NewEventRow projects ev into a row.
func NewEventRow(ev models.DataEvent) *EventRow {
	value := NotAvailable
	if ev.DataValue != nil {
		value = ev.DataValue.String()
	}
	return &EventRow{
		Event:     ev,
		EventTime: FormatTimestamp(ev.EventTime),
		Value:     value,
	}
}

// EventRows projects every event.
func EventRows(events []models.DataEvent) []*EventRow {
	out := make([]*EventRow, len(events))
	for i, ev := range events {
		out[i] = NewEventRow(ev)
	}
	return out
}
