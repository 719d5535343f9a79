package ical_test

import (
	"testing"
	"time"

	"icsctl/ical"
)

func mustRule(t *testing.T, raw string) *ical.RecurrenceRule {
	t.Helper()
	rule, err := ical.ParseRecurrenceRule(raw)
	if err != nil {
		t.Fatal(err)
	}
	return rule
}

func checkTimes(t *testing.T, got, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestExpandDaily(t *testing.T) {
	start := utc(2024, 1, 1, 9, 0)

	// case: COUNT bounds the sequence
	got := ical.NewExpander(mustRule(t, "FREQ=DAILY;COUNT=3"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 9, 0),
		utc(2024, 1, 2, 9, 0),
		utc(2024, 1, 3, 9, 0),
	})

	// case: UNTIL is inclusive, INTERVAL skips days
	got = ical.NewExpander(mustRule(t, "FREQ=DAILY;INTERVAL=2;UNTIL=20240107T090000Z"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 9, 0),
		utc(2024, 1, 3, 9, 0),
		utc(2024, 1, 5, 9, 0),
		utc(2024, 1, 7, 9, 0),
	})

	// case: UNTIL before the anchor yields nothing
	got = ical.NewExpander(mustRule(t, "FREQ=DAILY;UNTIL=20231231T090000Z"), start).All(0)
	if len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

func TestExpandWeekly(t *testing.T) {
	// 2024-01-01 is a Monday
	start := utc(2024, 1, 1, 10, 0)

	got := ical.NewExpander(mustRule(t, "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=4"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 10, 0),
		utc(2024, 1, 3, 10, 0),
		utc(2024, 1, 8, 10, 0),
		utc(2024, 1, 10, 10, 0),
	})

	// case: without BYDAY the anchor weekday repeats
	got = ical.NewExpander(mustRule(t, "FREQ=WEEKLY;INTERVAL=2;COUNT=3"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 10, 0),
		utc(2024, 1, 15, 10, 0),
		utc(2024, 1, 29, 10, 0),
	})

	// case: WKST decides which week a Sunday belongs to. With weeks
	// starting Monday the Sunday of the anchor week is Jan 7; with weeks
	// starting Sunday the anchor sits in the week of Dec 31, whose Sunday
	// is already past, so every occurrence shifts by one week.
	got = ical.NewExpander(mustRule(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=SU;COUNT=3"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 7, 10, 0),
		utc(2024, 1, 21, 10, 0),
		utc(2024, 2, 4, 10, 0),
	})
	got = ical.NewExpander(mustRule(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=SU;WKST=SU;COUNT=3"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 14, 10, 0),
		utc(2024, 1, 28, 10, 0),
		utc(2024, 2, 11, 10, 0),
	})
}

func TestExpandMonthly(t *testing.T) {
	// case: second Tuesday of each month
	start := utc(2024, 1, 9, 8, 0)
	got := ical.NewExpander(mustRule(t, "FREQ=MONTHLY;BYDAY=2TU;COUNT=2"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 9, 8, 0),
		utc(2024, 2, 13, 8, 0),
	})

	// case: months without the selected day are skipped, not clamped
	start = utc(2024, 1, 31, 12, 0)
	got = ical.NewExpander(mustRule(t, "FREQ=MONTHLY;BYMONTHDAY=31;COUNT=3"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 31, 12, 0),
		utc(2024, 3, 31, 12, 0),
		utc(2024, 5, 31, 12, 0),
	})

	// case: BYSETPOS=-1 picks the last weekday of the month
	start = utc(2024, 1, 1, 9, 0)
	got = ical.NewExpander(mustRule(t, "FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-1;COUNT=2"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 31, 9, 0),
		utc(2024, 2, 29, 9, 0),
	})

	// case: negative BYMONTHDAY counts from the end of the month
	start = utc(2024, 1, 31, 9, 0)
	got = ical.NewExpander(mustRule(t, "FREQ=MONTHLY;BYMONTHDAY=-1;COUNT=3"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 31, 9, 0),
		utc(2024, 2, 29, 9, 0),
		utc(2024, 3, 31, 9, 0),
	})
}

func TestExpandYearly(t *testing.T) {
	// case: Feb 29 anchors only land on leap years
	start := utc(2024, 2, 29, 9, 0)
	got := ical.NewExpander(mustRule(t, "FREQ=YEARLY;COUNT=2"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 2, 29, 9, 0),
		utc(2028, 2, 29, 9, 0),
	})

	// case: a rule that can never match terminates with nothing
	start = utc(2024, 1, 1, 9, 0)
	got = ical.NewExpander(mustRule(t, "FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=30"), start).All(0)
	if len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

func TestExpandSubDaily(t *testing.T) {
	start := utc(2024, 1, 1, 0, 0)
	got := ical.NewExpander(mustRule(t, "FREQ=HOURLY;INTERVAL=6;COUNT=4"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 0, 0),
		utc(2024, 1, 1, 6, 0),
		utc(2024, 1, 1, 12, 0),
		utc(2024, 1, 1, 18, 0),
	})

	// case: a BYHOUR filter leaves a day-long gap of empty minutes between
	// the last match of one day and the first of the next
	start = utc(2024, 1, 1, 9, 0)
	got = ical.NewExpander(mustRule(t, "FREQ=MINUTELY;BYHOUR=9;COUNT=61"), start).All(0)
	if len(got) != 61 {
		t.Fatalf("got %d occurrences, want 61", len(got))
	}
	if want := utc(2024, 1, 2, 9, 0); !got[60].Equal(want) {
		t.Errorf("occurrence 60: got %v, want %v", got[60], want)
	}

	// case: BYMONTH pushes the first hourly match almost a year out
	start = utc(2024, 3, 1, 0, 0)
	got = ical.NewExpander(mustRule(t, "FREQ=HOURLY;BYMONTH=2;COUNT=1"), start).All(0)
	checkTimes(t, got, []time.Time{
		utc(2025, 2, 1, 0, 0),
	})
}

func TestExpandExDatesAndRDates(t *testing.T) {
	start := utc(2024, 1, 1, 9, 0)

	// case: EXDATE removes an instance; COUNT still counts it
	got := ical.NewExpander(mustRule(t, "FREQ=DAILY;COUNT=3"), start).
		ExDates(utc(2024, 1, 2, 9, 0)).
		All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 9, 0),
		utc(2024, 1, 3, 9, 0),
	})

	// case: RDATEs merge into the sequence in sorted order
	got = ical.NewExpander(mustRule(t, "FREQ=DAILY;COUNT=2"), start).
		RDates(utc(2024, 1, 5, 9, 0), utc(2024, 1, 1, 12, 0)).
		All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 9, 0),
		utc(2024, 1, 1, 12, 0),
		utc(2024, 1, 2, 9, 0),
		utc(2024, 1, 5, 9, 0),
	})

	// case: an RDATE equal to a rule occurrence appears once
	got = ical.NewExpander(mustRule(t, "FREQ=DAILY;COUNT=2"), start).
		RDates(utc(2024, 1, 2, 9, 0)).
		All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 1, 9, 0),
		utc(2024, 1, 2, 9, 0),
	})

	// case: an EXDATE can cancel an RDATE too
	got = ical.NewExpander(nil, start).
		RDates(utc(2024, 1, 5, 9, 0)).
		ExDates(utc(2024, 1, 5, 9, 0)).
		All(0)
	checkTimes(t, got, []time.Time{start})
}

func TestExpandWindow(t *testing.T) {
	start := utc(2024, 1, 1, 9, 0)

	// case: [from, to) filters the output of an unbounded rule
	got := ical.NewExpander(mustRule(t, "FREQ=DAILY"), start).
		Within(utc(2024, 1, 10, 0, 0), utc(2024, 1, 13, 0, 0)).
		All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 10, 9, 0),
		utc(2024, 1, 11, 9, 0),
		utc(2024, 1, 12, 9, 0),
	})

	// case: occurrences before the window still consume COUNT
	got = ical.NewExpander(mustRule(t, "FREQ=DAILY;COUNT=5"), start).
		Within(utc(2024, 1, 3, 0, 0), time.Time{}).
		All(0)
	checkTimes(t, got, []time.Time{
		utc(2024, 1, 3, 9, 0),
		utc(2024, 1, 4, 9, 0),
		utc(2024, 1, 5, 9, 0),
	})
}

func TestExpandNoRule(t *testing.T) {
	start := utc(2024, 1, 1, 9, 0)
	got := ical.NewExpander(nil, start).All(0)
	checkTimes(t, got, []time.Time{start})
}

func TestExpandStrictlyIncreasing(t *testing.T) {
	start := utc(2024, 1, 1, 9, 0)
	exp := ical.NewExpander(mustRule(t, "FREQ=DAILY;COUNT=10"), start).
		RDates(utc(2024, 1, 3, 9, 0), utc(2024, 1, 3, 9, 0), utc(2024, 1, 4, 12, 0))

	var prev time.Time
	n := 0
	for {
		cur, ok := exp.Next()
		if !ok {
			break
		}
		if n > 0 && !cur.After(prev) {
			t.Fatalf("sequence not strictly increasing: %v then %v", prev, cur)
		}
		prev = cur
		n++
	}
	if n != 11 {
		t.Errorf("got %d occurrences, want 11", n)
	}
}

func TestExpandReset(t *testing.T) {
	start := utc(2024, 1, 1, 9, 0)
	exp := ical.NewExpander(mustRule(t, "FREQ=DAILY;COUNT=3"), start)
	first := exp.All(0)
	exp.Reset()
	second := exp.All(0)
	checkTimes(t, second, first)
}
