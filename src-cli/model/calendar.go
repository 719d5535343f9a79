package model

import "github.com/uptrace/bun"

// One calendar, backed by a subdirectory of the calendar root.
type Calendar struct {
	bun.BaseModel `bun:"table:calendars,alias:calendar"`

	Name string `bun:"name,pk"`       // required, the subdirectory name
	Path string `bun:"path,notnull"`  // required

	Events []*Event `bun:"rel:has-many,join:name=calendar_name"`
}
