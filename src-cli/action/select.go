package action

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"icsctl/ical"
	"icsctl/ical/event"
	"icsctl/src-cli/selector"
	"icsctl/src-cli/utils"
)

// Select filters event files straight off the filesystem, without touching
// the index. Matching paths become the new working sequence and are
// printed, one per line.
func Select(as *utils.AppState, args []string, out io.Writer) error {
	loc := as.Config.GetLocation()
	now := time.Now().In(loc)
	filter, err := selector.Parse(args, as.When, now, loc)
	if err != nil {
		return fmt.Errorf("action.Select: %w", err)
	}

	root := as.Config.GetCalendarDir()
	var matched []string
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ics") {
			return nil
		}
		ok, err := fileMatches(as, filter, root, path)
		if err != nil {
			slog.Warn("skipping malformed file", "path", path, "error", err)
			return nil
		}
		if ok {
			matched = append(matched, path)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walkFn); err != nil {
		return fmt.Errorf("action.Select: %w", err)
	}

	if err := utils.WriteSeq(as.Config, matched); err != nil {
		return fmt.Errorf("action.Select: %w", err)
	}
	for _, path := range matched {
		fmt.Fprintln(out, path)
	}
	return nil
}

// fileMatches reports whether any occurrence of any event in the file
// passes the filter.
func fileMatches(as *utils.AppState, filter *selector.Filter, root, path string) (bool, error) {
	doc, err := ical.FromFile(path)
	if err != nil {
		return false, err
	}
	calendar := calendarOf(root, path)

	// the occurrence window is the filter window, capped at the horizon
	// for rules with no bound of their own
	to := filter.To
	if to.IsZero() {
		to = time.Now().Add(as.Config.GetHorizon())
	}

	for _, ev := range event.EventsIn(doc, nil) {
		start, err := ev.StartDate()
		if err != nil {
			return false, err
		}
		end, err := ev.EndDate()
		if err != nil {
			return false, err
		}
		duration := end.Sub(start)

		expander, err := ev.Occurrences(time.Time{}, to)
		if err != nil {
			return false, err
		}
		for {
			t, ok := expander.Next()
			if !ok {
				break
			}
			if filter.Matches(t, t.Add(duration), calendar) {
				return true, nil
			}
		}
	}
	return false, nil
}
