// The `selector` package parses the date-filter arguments shared by the
// list and select commands:
//
//	from <date> to <date> on <date> in <date> cal <name>
//
// A <date> may be an exact form (2024-01-15, 20240115, 20240115T090000) or
// anything the natural-language parser understands ("today", "next monday"),
// in which case it may span several words.
package selector

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
)

// Filter is a parsed selector. Zero From/To leave that side unbounded;
// empty Calendars means every calendar.
type Filter struct {
	From      time.Time
	To        time.Time
	Calendars []string
}

var keywords = map[string]struct{}{
	"from": {},
	"to":   {},
	"on":   {},
	"in":   {},
	"cal":  {},
}

// Parse consumes the whole argument list. now anchors relative phrases,
// loc resolves the exact date forms.
func Parse(args []string, w *when.Parser, now time.Time, loc *time.Location) (*Filter, error) {
	filter := &Filter{}

	i := 0
	for i < len(args) {
		keyword := strings.ToLower(args[i])
		if _, ok := keywords[keyword]; !ok {
			return nil, fmt.Errorf("selector.Parse: unknown keyword %q", args[i])
		}
		i++

		// the value runs until the next keyword
		start := i
		for i < len(args) {
			if _, ok := keywords[strings.ToLower(args[i])]; ok {
				break
			}
			i++
		}
		if start == i {
			return nil, fmt.Errorf("selector.Parse: %q needs a value", keyword)
		}
		value := strings.Join(args[start:i], " ")

		if keyword == "cal" {
			filter.Calendars = append(filter.Calendars, value)
			continue
		}

		t, err := ParseDate(value, w, now, loc)
		if err != nil {
			return nil, err
		}
		switch keyword {
		case "from":
			filter.From = t
		case "to":
			filter.To = t
		case "on", "in":
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			filter.From = day
			filter.To = day.AddDate(0, 0, 1)
		}
	}

	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fmt.Errorf("selector.Parse: 'to' precedes 'from'")
	}
	return filter, nil
}

// Matches reports whether an event spanning [start, end) in the named
// calendar passes the filter. Zero end means an instant.
func (f *Filter) Matches(start, end time.Time, calendar string) bool {
	if end.IsZero() {
		end = start
	}
	if !f.From.IsZero() && end.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !start.Before(f.To) {
		return false
	}
	if len(f.Calendars) > 0 {
		found := false
		for _, name := range f.Calendars {
			if strings.EqualFold(name, calendar) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ParseDate resolves a single date argument: the exact forms first, then
// the natural-language parser.
func ParseDate(value string, w *when.Parser, now time.Time, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102", "20060102T150405"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	if w != nil {
		result, err := w.Parse(value, now)
		if err == nil && result != nil {
			return result.Time, nil
		}
	}
	return time.Time{}, fmt.Errorf("selector.ParseDate: can't understand %q", value)
}
