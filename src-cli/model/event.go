package model

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/uptrace/bun"
)

type EventUIDCtxKeyType string

const EventUIDCtxKey EventUIDCtxKeyType = "event-uid"

// One VEVENT as indexed from disk. Recurring events additionally get one
// Occurrence row per expanded instant.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:event"`

	UID         string `bun:"uid,pk"`           // required
	Summary     string `bun:"summary,notnull"`  // required
	Description string `bun:"description"`
	Location    string `bun:"location"`
	URL         string `bun:"url"`

	StartDateUnixUTC int64 `bun:"start_date,notnull"` // required
	EndDateUnixUTC   int64 `bun:"end_date,notnull"`   // required
	IsWholeDay       bool  `bun:"is_whole_day"`
	IsRecurring      bool  `bun:"is_recurring"`
	Sequence         int   `bun:"sequence"`

	CalendarName string `bun:"calendar_name,notnull"` // required
	Path         string `bun:"path,notnull"`          // required, source .ics file

	IndexedAt int64 `bun:"indexed_at,notnull"`

	Calendar    *Calendar     `bun:"rel:belongs-to,join:calendar_name=name"`
	Occurrences []*Occurrence `bun:"rel:has-many,join:uid=event_uid"`
}

func (e *Event) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case e.UID == "":
		return fmt.Errorf("(*Event).Upsert: event uid is blank")
	case e.Summary == "":
		return fmt.Errorf("(*Event).Upsert: summary is blank")
	case e.StartDateUnixUTC == 0:
		return fmt.Errorf("(*Event).Upsert: start date is blank")
	case e.EndDateUnixUTC == 0:
		return fmt.Errorf("(*Event).Upsert: end date is blank")
	case e.StartDateUnixUTC > e.EndDateUnixUTC:
		return fmt.Errorf("(*Event).Upsert: start date must be before end date")
	case e.CalendarName == "":
		return fmt.Errorf("(*Event).Upsert: calendar name is blank")
	case e.Path == "":
		return fmt.Errorf("(*Event).Upsert: path is blank")
	case e.URL != "":
		if _, err := url.ParseRequestURI(e.URL); err != nil {
			return fmt.Errorf("(*Event).Upsert: url is invalid: %w", err)
		}
	}
	if e.IndexedAt == 0 {
		e.IndexedAt = time.Now().UTC().Unix()
	}

	exists, err := db.NewSelect().
		Model((*Event)(nil)).
		Where("uid = ?", e.UID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("(*Event).Upsert: %w", err)
	}

	switch exists {
	case true:
		if _, err := db.NewUpdate().
			Model(e).
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).Upsert: %w", err)
		}
	case false:
		if _, err := db.NewInsert().
			Model(e).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).Upsert: %w", err)
		}
	}

	return nil
}

var _ bun.AfterDeleteHook = (*Event)(nil)

// Cleanup expanded occurrences of the deleted event.
func (e *Event) AfterDelete(ctx context.Context, query *bun.DeleteQuery) error {
	if query.DB() == nil {
		return fmt.Errorf("Event.AfterDelete: db is nil")
	}

	switch eventUID := ctx.Value(EventUIDCtxKey).(type) {
	case string:
		if eventUID == "" {
			return fmt.Errorf("Event.AfterDelete: eventUID is blank")
		}
		if _, err := query.DB().NewDelete().
			Model((*Occurrence)(nil)).
			Where("event_uid = ?", eventUID).
			Exec(ctx); err != nil {
			return fmt.Errorf("Event.AfterDelete: can't delete occurrences: %w", err)
		}
		return nil
	case nil:
		return fmt.Errorf("Event.AfterDelete: event uid is nil")
	default:
		return fmt.Errorf("Event.AfterDelete: wrong eventUID type | type=%T", eventUID)
	}
}
