package ical_test

import (
	"errors"
	"testing"
	"time"

	"icsctl/ical"
)

func TestParseRecurrenceRule(t *testing.T) {
	// case: typical weekly rule
	func() {
		rule, err := ical.ParseRecurrenceRule("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=10")
		if err != nil {
			t.Fatal(err)
		}
		if rule.Freq != ical.Weekly || rule.Interval != 2 || rule.Count != 10 {
			t.Errorf("got %+v", rule)
		}
		if len(rule.ByDay) != 2 || rule.ByDay[0].Day != time.Monday || rule.ByDay[1].Day != time.Wednesday {
			t.Errorf("got BYDAY %+v", rule.ByDay)
		}
	}()

	// case: defaults
	func() {
		rule, err := ical.ParseRecurrenceRule("FREQ=DAILY")
		if err != nil {
			t.Fatal(err)
		}
		if rule.Interval != 1 {
			t.Errorf("default INTERVAL should be 1, got %d", rule.Interval)
		}
		if rule.WeekStart != time.Monday {
			t.Errorf("default WKST should be MO, got %v", rule.WeekStart)
		}
	}()

	// case: ordinals in BYDAY
	func() {
		rule, err := ical.ParseRecurrenceRule("FREQ=MONTHLY;BYDAY=2TU,-1FR")
		if err != nil {
			t.Fatal(err)
		}
		if rule.ByDay[0].Ordinal != 2 || rule.ByDay[0].Day != time.Tuesday {
			t.Errorf("got %+v", rule.ByDay[0])
		}
		if rule.ByDay[1].Ordinal != -1 || rule.ByDay[1].Day != time.Friday {
			t.Errorf("got %+v", rule.ByDay[1])
		}
	}()

	// case: UNTIL in UTC form
	func() {
		rule, err := ical.ParseRecurrenceRule("FREQ=DAILY;UNTIL=20240110T090000Z")
		if err != nil {
			t.Fatal(err)
		}
		want := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
		if !rule.Until.Equal(want) {
			t.Errorf("got %v", rule.Until)
		}
	}()

	// case: keys are case-insensitive
	func() {
		rule, err := ical.ParseRecurrenceRule("freq=yearly;bymonth=2")
		if err != nil {
			t.Fatal(err)
		}
		if rule.Freq != ical.Yearly || len(rule.ByMonth) != 1 || rule.ByMonth[0] != 2 {
			t.Errorf("got %+v", rule)
		}
	}()
}

func TestParseRecurrenceRuleErrors(t *testing.T) {
	for _, raw := range []string{
		"INTERVAL=2",                          // FREQ missing
		"FREQ=SOMETIMES",                      // unknown frequency
		"FREQ=DAILY;COUNT=3;UNTIL=20240110T090000Z", // mutually exclusive
		"FREQ=DAILY;COUNT=0",                  // COUNT must be positive
		"FREQ=DAILY;INTERVAL=-1",              // INTERVAL must be positive
		"FREQ=DAILY;BYHOUR=24",                // out of range
		"FREQ=DAILY;BYMONTHDAY=0",             // zero not allowed
		"FREQ=DAILY;BYMONTH=-1",               // negative not allowed here
		"FREQ=WEEKLY;BYDAY=XX",                // not a weekday
		"FREQ=MONTHLY;BYDAY=0TU",              // zero ordinal
		"FREQ=DAILY;NOVALUE",                  // part without '='
		"FREQ=DAILY;X-CUSTOM=1",               // unknown part
	} {
		if _, err := ical.ParseRecurrenceRule(raw); !errors.Is(err, ical.ErrValueDecode) {
			t.Errorf("%q: got %v, want ErrValueDecode", raw, err)
		}
	}
}

func TestRecurrenceRuleString(t *testing.T) {
	// case: canonical part order regardless of input order
	for raw, want := range map[string]string{
		"FREQ=DAILY":                               "FREQ=DAILY",
		"COUNT=10;BYDAY=MO,WE;INTERVAL=2;FREQ=WEEKLY": "FREQ=WEEKLY;INTERVAL=2;COUNT=10;BYDAY=MO,WE",
		"FREQ=MONTHLY;BYDAY=2TU":                   "FREQ=MONTHLY;BYDAY=2TU",
		"FREQ=MONTHLY;BYMONTHDAY=-1":               "FREQ=MONTHLY;BYMONTHDAY=-1",
		"FREQ=WEEKLY;WKST=SU":                      "FREQ=WEEKLY;WKST=SU",
		"FREQ=WEEKLY;WKST=MO;INTERVAL=1":           "FREQ=WEEKLY",
		"FREQ=YEARLY;BYMONTH=3;BYSETPOS=1,-1":      "FREQ=YEARLY;BYMONTH=3;BYSETPOS=1,-1",
	} {
		rule, err := ical.ParseRecurrenceRule(raw)
		if err != nil {
			t.Errorf("%q: %v", raw, err)
			continue
		}
		if got := rule.String(); got != want {
			t.Errorf("%q: got %q, want %q", raw, got, want)
		}
		// the canonical form must parse back to the same canonical form
		back, err := ical.ParseRecurrenceRule(rule.String())
		if err != nil || back.String() != rule.String() {
			t.Errorf("%q: canonical form not stable: %v", raw, err)
		}
	}
}
