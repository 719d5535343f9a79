package selector_test

import (
	"testing"
	"time"

	"icsctl/src-cli/selector"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

func newWhen() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

func TestParse(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	w := newWhen()

	// case: exact from/to
	func() {
		filter, err := selector.Parse([]string{"from", "2024-01-01", "to", "2024-02-01"}, w, now, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if !filter.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("got from %v", filter.From)
		}
		if !filter.To.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("got to %v", filter.To)
		}
	}()

	// case: on spans exactly one day
	func() {
		filter, err := selector.Parse([]string{"on", "20240115"}, w, now, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if !filter.From.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) ||
			!filter.To.Equal(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("got [%v, %v)", filter.From, filter.To)
		}
	}()

	// case: in is an alias of on
	func() {
		filter, err := selector.Parse([]string{"in", "2024-01-02"}, w, now, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if !filter.From.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) ||
			!filter.To.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("got [%v, %v)", filter.From, filter.To)
		}
	}()

	// case: natural-language value spanning several words
	func() {
		filter, err := selector.Parse([]string{"from", "next", "monday"}, w, now, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if filter.From.IsZero() || !filter.From.After(now) {
			t.Errorf("got %v", filter.From)
		}
	}()

	// case: cal is repeatable and not a date
	func() {
		filter, err := selector.Parse([]string{"cal", "work", "cal", "home"}, w, now, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if len(filter.Calendars) != 2 {
			t.Errorf("got %v", filter.Calendars)
		}
	}()

	// case: errors
	for _, args := range [][]string{
		{"banana"},
		{"from"},
		{"from", "gibberish-jqx"},
		{"from", "2024-02-01", "to", "2024-01-01"},
	} {
		if _, err := selector.Parse(args, w, now, time.UTC); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestMatches(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	filter, err := selector.Parse([]string{"from", "2024-01-10", "to", "2024-01-20", "cal", "work"}, newWhen(), now, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	day := func(d int) time.Time { return time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC) }

	if !filter.Matches(day(15), day(15).Add(time.Hour), "work") {
		t.Error("in-window event should match")
	}
	if !filter.Matches(day(15), day(15).Add(time.Hour), "WORK") {
		t.Error("calendar match should be case-insensitive")
	}
	if filter.Matches(day(15), day(15).Add(time.Hour), "home") {
		t.Error("other calendar should not match")
	}
	if filter.Matches(day(25), day(25).Add(time.Hour), "work") {
		t.Error("event after the window should not match")
	}
	if filter.Matches(day(5), day(5).Add(time.Hour), "work") {
		t.Error("event before the window should not match")
	}
	// an event straddling the window edge still overlaps it
	if !filter.Matches(day(9), day(11), "work") {
		t.Error("overlapping event should match")
	}
}
