package model

import "github.com/uptrace/bun"

// Expanded recurrence instants of indexed events, one row per occurrence.
type Occurrence struct {
	bun.BaseModel `bun:"table:occurrences,alias:occurrence"`

	EventUID string `bun:"event_uid,notnull"`
	Date     int64  `bun:"date,notnull"` // occurrence start, unix UTC
}
