// The `event` package is a typed view over VEVENT components in a parsed
// ical.Document. It never copies the underlying component, so a document
// inspected through it still serializes byte-for-byte.
package event

import (
	"fmt"
	"strings"
	"time"

	"icsctl/ical"
)

// Event wraps one VEVENT component of a document.
type Event struct {
	doc *ical.Document
	id  ical.ComponentID
	tz  ical.TimezoneResolver
}

// New wraps the component with the given id, which must be a VEVENT.
func New(doc *ical.Document, id ical.ComponentID, tz ical.TimezoneResolver) (*Event, error) {
	if comp := doc.Component(id); comp.Name != "VEVENT" {
		return nil, fmt.Errorf("event.New: expected VEVENT, got %s", comp.Name)
	}
	if tz == nil {
		tz = ical.SystemTimezones()
	}
	return &Event{doc: doc, id: id, tz: tz}, nil
}

// EventsIn collects every VEVENT in the document, in document order.
func EventsIn(doc *ical.Document, tz ical.TimezoneResolver) []*Event {
	var events []*Event
	for _, id := range doc.ComponentsNamed("VEVENT") {
		ev, err := New(doc, id, tz)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events
}

// Component exposes the wrapped component for direct property access.
func (e *Event) Component() *ical.Component {
	return e.doc.Component(e.id)
}

// #region Getters

func (e *Event) UID() string {
	return e.textProperty("UID")
}

func (e *Event) Summary() string {
	return e.textProperty("SUMMARY")
}

func (e *Event) Description() string {
	return e.textProperty("DESCRIPTION")
}

func (e *Event) Location() string {
	return e.textProperty("LOCATION")
}

func (e *Event) URL() string {
	return e.textProperty("URL")
}

func (e *Event) Sequence() int {
	prop, ok := e.Component().Property("SEQUENCE")
	if !ok {
		return 0
	}
	value, err := prop.Decode(e.tz)
	if err != nil || value.Kind != ical.ValueInteger {
		return 0
	}
	return int(value.Integer)
}

// #endregion

// StartDate is the event's DTSTART.
func (e *Event) StartDate() (time.Time, error) {
	return e.dateTimeProperty("DTSTART")
}

// EndDate is DTEND when present, otherwise DTSTART plus DURATION,
// otherwise DTSTART itself (or the following midnight for all-day events).
func (e *Event) EndDate() (time.Time, error) {
	if _, ok := e.Component().Property("DTEND"); ok {
		return e.dateTimeProperty("DTEND")
	}
	start, err := e.StartDate()
	if err != nil {
		return time.Time{}, err
	}
	if prop, ok := e.Component().Property("DURATION"); ok {
		value, err := prop.Decode(e.tz)
		if err != nil {
			return time.Time{}, err
		}
		return start.Add(value.Duration), nil
	}
	if e.IsAllDay() {
		return start.AddDate(0, 0, 1), nil
	}
	return start, nil
}

// IsAllDay reports whether DTSTART carries a DATE value.
func (e *Event) IsAllDay() bool {
	prop, ok := e.Component().Property("DTSTART")
	if !ok {
		return false
	}
	if declared, ok := prop.Param("VALUE"); ok {
		return strings.EqualFold(declared, "DATE")
	}
	value, err := prop.Decode(e.tz)
	if err != nil {
		return false
	}
	return value.Kind == ical.ValueDate
}

// LastRelevantDate is the last day on which the event still matters: the
// end date, rolled back one day for all-day events since their DTEND is
// exclusive.
func (e *Event) LastRelevantDate() (time.Time, error) {
	end, err := e.EndDate()
	if err != nil {
		return time.Time{}, err
	}
	if e.IsAllDay() {
		return end.AddDate(0, 0, -1), nil
	}
	return end, nil
}

// IsRecurMaster reports whether this VEVENT defines a recurrence rather
// than overriding one instance of it.
func (e *Event) IsRecurMaster() bool {
	_, hasRule := e.Component().Property("RRULE")
	_, hasRecurrenceID := e.Component().Property("RECURRENCE-ID")
	return hasRule && !hasRecurrenceID
}

// RecurrenceID is set on override events: the instant of the instance the
// event replaces.
func (e *Event) RecurrenceID() (time.Time, bool) {
	prop, ok := e.Component().Property("RECURRENCE-ID")
	if !ok {
		return time.Time{}, false
	}
	value, err := prop.Decode(e.tz)
	if err != nil {
		return time.Time{}, false
	}
	return value.Time, true
}

// RecurrenceRule is the parsed RRULE, nil when the event has none.
func (e *Event) RecurrenceRule() (*ical.RecurrenceRule, error) {
	prop, ok := e.Component().Property("RRULE")
	if !ok {
		return nil, nil
	}
	value, err := prop.Decode(e.tz)
	if err != nil {
		return nil, err
	}
	return value.Recur, nil
}

// Occurrences builds an expander over the event's recurrence set: RRULE
// plus every EXDATE and RDATE, anchored at DTSTART and bounded to
// [from, to). A non-recurring event yields its start instant only.
func (e *Event) Occurrences(from, to time.Time) (*ical.Expander, error) {
	start, err := e.StartDate()
	if err != nil {
		return nil, err
	}
	rule, err := e.RecurrenceRule()
	if err != nil {
		return nil, err
	}

	exdates, err := e.dateTimeList("EXDATE")
	if err != nil {
		return nil, err
	}
	rdates, err := e.dateTimeList("RDATE")
	if err != nil {
		return nil, err
	}

	return ical.NewExpander(rule, start).
		Within(from, to).
		ExDates(exdates...).
		RDates(rdates...), nil
}

func (e *Event) textProperty(name string) string {
	prop, ok := e.Component().Property(name)
	if !ok {
		return ""
	}
	value, err := prop.Decode(e.tz)
	if err != nil || value.Kind != ical.ValueText {
		return prop.Value
	}
	return value.Text
}

func (e *Event) dateTimeProperty(name string) (time.Time, error) {
	prop, ok := e.Component().Property(name)
	if !ok {
		return time.Time{}, fmt.Errorf("event: %s is missing", name)
	}
	value, err := prop.Decode(e.tz)
	if err != nil {
		return time.Time{}, err
	}
	return value.Time, nil
}

// dateTimeList flattens every instance of a multi-valued date property,
// EXDATE and RDATE both take comma-separated lists and may repeat.
func (e *Event) dateTimeList(name string) ([]time.Time, error) {
	var out []time.Time
	for _, prop := range e.Component().PropertiesNamed(name) {
		kind := ical.ValueDateTime
		if declared, ok := prop.Param("VALUE"); ok && strings.EqualFold(declared, "DATE") {
			kind = ical.ValueDate
		}
		for _, raw := range strings.Split(prop.Value, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			value, err := ical.DecodeValue(raw, kind, prop, e.tz)
			if err != nil {
				return nil, err
			}
			out = append(out, value.Time)
		}
	}
	return out, nil
}
