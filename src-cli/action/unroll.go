package action

import (
	"fmt"
	"io"
	"time"

	"icsctl/ical"
	"icsctl/ical/event"
	"icsctl/src-cli/utils"
)

// Unroll prints every occurrence instant of the events in a file, bounded
// by the configured horizon for rules without an end of their own.
func Unroll(as *utils.AppState, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("action.Unroll: usage: unroll PATH")
	}
	doc, err := ical.FromFile(args[0])
	if err != nil {
		return fmt.Errorf("action.Unroll: %w", err)
	}

	loc := as.Config.GetLocation()
	horizon := time.Now().In(loc).Add(as.Config.GetHorizon())

	events := event.EventsIn(doc, nil)
	if len(events) == 0 {
		return fmt.Errorf("action.Unroll: no events in %s", args[0])
	}
	for _, ev := range events {
		if _, isOverride := ev.RecurrenceID(); isOverride {
			continue
		}
		expander, err := ev.Occurrences(time.Time{}, horizon)
		if err != nil {
			return fmt.Errorf("action.Unroll: %w", err)
		}
		for {
			t, ok := expander.Next()
			if !ok {
				break
			}
			fmt.Fprintf(out, "%s\t%s\n", t.In(loc).Format("2006-01-02 15:04"), ev.Summary())
		}
	}
	return nil
}
