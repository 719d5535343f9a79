package event_test

import (
	"testing"
	"time"

	"icsctl/ical"
	"icsctl/ical/event"
)

func parseCalendar(t *testing.T, body string) *ical.Document {
	t.Helper()
	doc, err := ical.ParseString("BEGIN:VCALENDAR\r\n" + body + "END:VCALENDAR\r\n")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func firstEvent(t *testing.T, doc *ical.Document) *event.Event {
	t.Helper()
	events := event.EventsIn(doc, nil)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	return events[0]
}

func TestEventGetters(t *testing.T) {
	doc := parseCalendar(t,
		"BEGIN:VEVENT\r\n"+
			"UID:1@example.com\r\n"+
			"SUMMARY:Lunch\\, meeting\r\n"+
			"DESCRIPTION:bring slides\r\n"+
			"LOCATION:room 5\r\n"+
			"DTSTART:20240115T120000Z\r\n"+
			"DTEND:20240115T130000Z\r\n"+
			"SEQUENCE:2\r\n"+
			"END:VEVENT\r\n")
	ev := firstEvent(t, doc)

	if ev.UID() != "1@example.com" {
		t.Errorf("got %q", ev.UID())
	}
	if ev.Summary() != "Lunch, meeting" {
		t.Errorf("summary should be unescaped, got %q", ev.Summary())
	}
	if ev.Location() != "room 5" {
		t.Errorf("got %q", ev.Location())
	}
	if ev.Sequence() != 2 {
		t.Errorf("got %d", ev.Sequence())
	}

	start, err := ev.StartDate()
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", start)
	}
	end, err := ev.EndDate()
	if err != nil {
		t.Fatal(err)
	}
	if !end.Equal(time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", end)
	}
	if ev.IsAllDay() {
		t.Error("timed event reported as all-day")
	}
}

func TestEventEndDateFallbacks(t *testing.T) {
	// case: DURATION instead of DTEND
	func() {
		doc := parseCalendar(t,
			"BEGIN:VEVENT\r\n"+
				"UID:1\r\n"+
				"DTSTART:20240115T120000Z\r\n"+
				"DURATION:PT1H30M\r\n"+
				"END:VEVENT\r\n")
		end, err := firstEvent(t, doc).EndDate()
		if err != nil {
			t.Fatal(err)
		}
		if !end.Equal(time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC)) {
			t.Errorf("got %v", end)
		}
	}()

	// case: all-day without DTEND spans one day
	func() {
		doc := parseCalendar(t,
			"BEGIN:VEVENT\r\n"+
				"UID:1\r\n"+
				"DTSTART;VALUE=DATE:20240115\r\n"+
				"END:VEVENT\r\n")
		ev := firstEvent(t, doc)
		if !ev.IsAllDay() {
			t.Error("expected all-day")
		}
		end, err := ev.EndDate()
		if err != nil {
			t.Fatal(err)
		}
		if end.Day() != 16 {
			t.Errorf("got %v", end)
		}
		last, err := ev.LastRelevantDate()
		if err != nil {
			t.Fatal(err)
		}
		if last.Day() != 15 {
			t.Errorf("got %v", last)
		}
	}()
}

func TestEventRecurrence(t *testing.T) {
	doc := parseCalendar(t,
		"BEGIN:VEVENT\r\n"+
			"UID:1\r\n"+
			"DTSTART:20240101T090000Z\r\n"+
			"RRULE:FREQ=DAILY;COUNT=5\r\n"+
			"EXDATE:20240102T090000Z,20240104T090000Z\r\n"+
			"RDATE:20240110T090000Z\r\n"+
			"END:VEVENT\r\n")
	ev := firstEvent(t, doc)

	if !ev.IsRecurMaster() {
		t.Error("expected a recurrence master")
	}

	exp, err := ev.Occurrences(time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	got := exp.All(0)
	want := []time.Time{
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEventRecurrenceOverride(t *testing.T) {
	doc := parseCalendar(t,
		"BEGIN:VEVENT\r\n"+
			"UID:1\r\n"+
			"DTSTART:20240103T100000Z\r\n"+
			"RECURRENCE-ID:20240103T090000Z\r\n"+
			"SUMMARY:Moved instance\r\n"+
			"END:VEVENT\r\n")
	ev := firstEvent(t, doc)

	if ev.IsRecurMaster() {
		t.Error("override must not be a master")
	}
	rid, ok := ev.RecurrenceID()
	if !ok {
		t.Fatal("missing recurrence id")
	}
	if !rid.Equal(time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", rid)
	}
}

func TestBuilder(t *testing.T) {
	doc, calID := ical.NewCalendar("-//icsctl//EN")

	_, ev, err := event.NewBuilder().
		SetSummary("Team; sync").
		SetStartDate(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)).
		SetEndDate(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)).
		SetUIDSource(func() string { return "fixed-uid" }).
		SetClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }).
		Attach(doc, calID, nil)
	if err != nil {
		t.Fatal(err)
	}

	if ev.UID() != "fixed-uid" {
		t.Errorf("got %q", ev.UID())
	}
	if ev.Summary() != "Team; sync" {
		t.Errorf("got %q", ev.Summary())
	}
	if raw, _ := ev.Component().Property("SUMMARY"); raw.Value != `Team\; sync` {
		t.Errorf("stored value should be escaped, got %q", raw.Value)
	}
	if stamp, ok := ev.Component().Property("DTSTAMP"); !ok || stamp.Value != "20240101T000000Z" {
		t.Error("DTSTAMP not set from the clock")
	}

	// the built document round-trips through the serializer
	out, err := doc.String()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ical.ParseString(out)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Equal(back) {
		t.Error("built document did not round-trip")
	}
}

func TestBuilderValidation(t *testing.T) {
	doc, calID := ical.NewCalendar("-//icsctl//EN")

	// case: summary required
	if _, _, err := event.NewBuilder().
		SetStartDate(time.Now()).
		Attach(doc, calID, nil); err == nil {
		t.Error("expected error for missing summary")
	}

	// case: start required
	if _, _, err := event.NewBuilder().
		SetSummary("x").
		Attach(doc, calID, nil); err == nil {
		t.Error("expected error for missing start date")
	}

	// case: end before start
	if _, _, err := event.NewBuilder().
		SetSummary("x").
		SetStartDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)).
		SetEndDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
		Attach(doc, calID, nil); err == nil {
		t.Error("expected error for end before start")
	}
}
