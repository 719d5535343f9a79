package event

import (
	"time"

	"github.com/google/uuid"

	"icsctl/ical"
)

// Builder accumulates event fields and attaches them to a document as a
// new VEVENT. Setters chain.
type Builder struct {
	uid         string
	summary     string
	description string
	location    string
	url         string
	startDate   time.Time
	endDate     time.Time
	allDay      bool
	rrule       *ical.RecurrenceRule
	exdates     []time.Time
	rdates      []time.Time
	sequence    int

	uidSource func() string
	now       func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{
		uidSource: uuid.NewString,
		now:       time.Now,
	}
}

// #region Setters

func (b *Builder) SetUID(uid string) *Builder {
	b.uid = uid
	return b
}

func (b *Builder) SetSummary(summary string) *Builder {
	b.summary = summary
	return b
}

func (b *Builder) SetDescription(description string) *Builder {
	b.description = description
	return b
}

func (b *Builder) SetLocation(location string) *Builder {
	b.location = location
	return b
}

func (b *Builder) SetURL(url string) *Builder {
	b.url = url
	return b
}

func (b *Builder) SetStartDate(t time.Time) *Builder {
	b.startDate = t
	return b
}

func (b *Builder) SetEndDate(t time.Time) *Builder {
	b.endDate = t
	return b
}

func (b *Builder) SetAllDay(allDay bool) *Builder {
	b.allDay = allDay
	return b
}

func (b *Builder) SetRecurrenceRule(rule *ical.RecurrenceRule) *Builder {
	b.rrule = rule
	return b
}

func (b *Builder) AddExDate(t time.Time) *Builder {
	b.exdates = append(b.exdates, t)
	return b
}

func (b *Builder) AddRDate(t time.Time) *Builder {
	b.rdates = append(b.rdates, t)
	return b
}

func (b *Builder) SetSequence(seq int) *Builder {
	b.sequence = seq
	return b
}

// SetUIDSource overrides where generated UIDs come from, handy in tests.
func (b *Builder) SetUIDSource(fn func() string) *Builder {
	b.uidSource = fn
	return b
}

// SetClock overrides the DTSTAMP clock, handy in tests.
func (b *Builder) SetClock(fn func() time.Time) *Builder {
	b.now = fn
	return b
}

// #endregion

func (b *Builder) validate() error {
	switch {
	case b.summary == "":
		return ical.NewCustomError("summary is required", nil, nil)
	case b.startDate.IsZero():
		return ical.NewCustomError("start date is required", nil, nil)
	case !b.endDate.IsZero() && b.endDate.Before(b.startDate):
		return ical.NewCustomError("end date must not precede start date", nil, map[string]any{
			"startDate": b.startDate,
			"endDate":   b.endDate,
		})
	}
	return nil
}

// Attach validates the builder and appends a VEVENT under parent,
// returning the new component's id and the wrapped event.
func (b *Builder) Attach(doc *ical.Document, parent ical.ComponentID, tz ical.TimezoneResolver) (ical.ComponentID, *Event, error) {
	if err := b.validate(); err != nil {
		return 0, nil, err
	}

	uid := b.uid
	if uid == "" {
		uid = b.uidSource()
	}
	endDate := b.endDate
	if endDate.IsZero() {
		endDate = b.startDate
		if b.allDay {
			endDate = endDate.AddDate(0, 0, 1)
		}
	}

	id := doc.AddChild(parent, "VEVENT")
	comp := doc.Component(id)

	comp.AddProperty(ical.Property{Name: "UID", Value: uid})
	comp.AddProperty(ical.Property{
		Name:  "DTSTAMP",
		Value: b.now().UTC().Format("20060102T150405Z"),
	})
	comp.AddProperty(b.dateProperty("DTSTART", b.startDate))
	comp.AddProperty(b.dateProperty("DTEND", endDate))
	comp.AddProperty(ical.Property{Name: "SUMMARY", Value: ical.EscapeText(b.summary)})

	if b.description != "" {
		comp.AddProperty(ical.Property{Name: "DESCRIPTION", Value: ical.EscapeText(b.description)})
	}
	if b.location != "" {
		comp.AddProperty(ical.Property{Name: "LOCATION", Value: ical.EscapeText(b.location)})
	}
	if b.url != "" {
		comp.AddProperty(ical.Property{Name: "URL", Value: b.url})
	}
	if b.rrule != nil {
		comp.AddProperty(ical.Property{Name: "RRULE", Value: b.rrule.String()})
	}
	for _, t := range b.exdates {
		comp.AddProperty(b.dateProperty("EXDATE", t))
	}
	for _, t := range b.rdates {
		comp.AddProperty(b.dateProperty("RDATE", t))
	}
	if b.sequence > 0 {
		comp.AddProperty(ical.Property{
			Name:  "SEQUENCE",
			Value: (&ical.Value{Kind: ical.ValueInteger, Integer: int64(b.sequence)}).Encode(),
		})
	}

	ev, err := New(doc, id, tz)
	if err != nil {
		return 0, nil, err
	}
	return id, ev, nil
}

func (b *Builder) dateProperty(name string, t time.Time) ical.Property {
	if b.allDay {
		return ical.Property{
			Name:   name,
			Params: []ical.Param{{Name: "VALUE", Values: []string{"DATE"}}},
			Value:  t.Format("20060102"),
		}
	}
	return ical.Property{Name: name, Value: t.UTC().Format("20060102T150405Z")}
}
