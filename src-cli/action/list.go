package action

import (
	"context"
	"fmt"
	"io"
	"time"

	"icsctl/src-cli/model"
	"icsctl/src-cli/selector"
	"icsctl/src-cli/utils"

	"github.com/uptrace/bun"
)

// one row of list output: an occurrence joined with its event
type occurrenceRow struct {
	Date         int64  `bun:"date"`
	Summary      string `bun:"summary"`
	CalendarName string `bun:"calendar_name"`
	Path         string `bun:"path"`
}

// List queries the occurrence index with the selector arguments and prints
// one line per occurrence, sorted by start.
func List(as *utils.AppState, args []string, out io.Writer) error {
	now := time.Now().In(as.Config.GetLocation())
	filter, err := selector.Parse(args, as.When, now, as.Config.GetLocation())
	if err != nil {
		return fmt.Errorf("action.List: %w", err)
	}

	query := as.BunDb.NewSelect().
		Model((*model.Occurrence)(nil)).
		ColumnExpr("occurrence.date, event.summary, event.calendar_name, event.path").
		Join("JOIN events AS event ON event.uid = occurrence.event_uid").
		OrderExpr("occurrence.date ASC")
	if !filter.From.IsZero() {
		query = query.Where("occurrence.date >= ?", filter.From.UTC().Unix())
	}
	if !filter.To.IsZero() {
		query = query.Where("occurrence.date < ?", filter.To.UTC().Unix())
	}
	if len(filter.Calendars) > 0 {
		query = query.Where("event.calendar_name IN (?)", bun.In(filter.Calendars))
	}

	var rows []occurrenceRow
	if err := query.Scan(context.Background(), &rows); err != nil {
		return fmt.Errorf("action.List: %w", err)
	}

	for _, row := range rows {
		start := time.Unix(row.Date, 0).In(as.Config.GetLocation())
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
			start.Format("2006-01-02 15:04"), row.CalendarName, row.Summary, row.Path)
	}
	return nil
}
