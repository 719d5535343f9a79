package ical

import (
	"sort"
	"time"
)

// maxEmptyYears bounds how far an unproductive scan may run past the last
// productive period before the expander gives up, so a rule that can never
// match (FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=30) terminates instead of
// spinning. The bound is in elapsed time rather than period count because
// legitimate gaps scale with the frequency: a MINUTELY rule narrowed by
// BYHOUR stays silent for over a thousand periods a day, and leap day
// pinned to one weekday can stay silent for decades.
const maxEmptyYears = 100

// Expander computes the concrete occurrence instants of a recurrence set.
// It is a lazy pull iterator: call Next until it reports false. The
// sequence is strictly increasing, EXDATE instants are subtracted, RDATE
// instants merged in sorted order, and generation stops at COUNT
// occurrences, at UNTIL (inclusive), or at the end of the window.
//
// Stopping early is just not calling Next again; there is no cancellation
// token to thread through.
type Expander struct {
	rule  *RecurrenceRule
	start time.Time

	from, to time.Time // [from, to); zero means unbounded
	exdates  map[int64]struct{}
	rdates   []time.Time

	// iteration state
	period    int
	buf       []time.Time
	bufIdx    int
	produced  int
	progress  time.Time // start of the last productive period
	rdIdx     int
	last      time.Time
	hasLast   bool
	exhausted bool
}

// NewExpander creates an expander for rule anchored at the start instant.
func NewExpander(rule *RecurrenceRule, start time.Time) *Expander {
	return &Expander{
		rule:    rule,
		start:   start,
		exdates: make(map[int64]struct{}),
	}
}

// Within bounds the produced occurrences to [from, to). Either side may be
// the zero time to leave it open. Returns itself for chaining.
func (e *Expander) Within(from, to time.Time) *Expander {
	e.from = from
	e.to = to
	return e
}

// ExDates removes exact instants from the produced set.
// Returns itself for chaining.
func (e *Expander) ExDates(ts ...time.Time) *Expander {
	for _, t := range ts {
		e.exdates[t.UnixNano()] = struct{}{}
	}
	return e
}

// RDates merges explicit instants into the produced set.
// Returns itself for chaining.
func (e *Expander) RDates(ts ...time.Time) *Expander {
	e.rdates = append(e.rdates, ts...)
	sort.Slice(e.rdates, func(i, j int) bool { return e.rdates[i].Before(e.rdates[j]) })
	return e
}

// Reset rewinds the expander to the beginning of the sequence.
func (e *Expander) Reset() {
	e.period = 0
	e.buf = nil
	e.bufIdx = 0
	e.produced = 0
	e.progress = time.Time{}
	e.rdIdx = 0
	e.hasLast = false
	e.exhausted = false
}

// Next produces the next occurrence instant.
func (e *Expander) Next() (time.Time, bool) {
	for {
		rule, haveRule := e.peekRule()
		var rdate time.Time
		haveRDate := e.rdIdx < len(e.rdates)
		if haveRDate {
			rdate = e.rdates[e.rdIdx]
		}

		var t time.Time
		switch {
		case !haveRule && !haveRDate:
			return time.Time{}, false
		case !haveRDate, haveRule && !rule.After(rdate):
			t = rule
			e.advanceRule()
			if haveRDate && rdate.Equal(rule) {
				e.rdIdx++
			}
		default:
			t = rdate
			e.rdIdx++
		}

		if _, excluded := e.exdates[t.UnixNano()]; excluded {
			continue
		}
		if e.hasLast && !t.After(e.last) {
			continue
		}
		if !e.from.IsZero() && t.Before(e.from) {
			continue
		}
		if !e.to.IsZero() && !t.Before(e.to) {
			// the merged stream is non-decreasing, nothing later can be
			// inside the window either
			return time.Time{}, false
		}
		e.last = t
		e.hasLast = true
		return t, true
	}
}

// All drains the expander into a slice, stopping after limit occurrences
// when limit is positive.
func (e *Expander) All(limit int) []time.Time {
	var out []time.Time
	for {
		t, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			return out
		}
	}
}

// peekRule returns the next rule-generated occurrence without consuming it.
func (e *Expander) peekRule() (time.Time, bool) {
	for e.bufIdx >= len(e.buf) {
		if e.exhausted {
			return time.Time{}, false
		}
		if e.rule == nil {
			// no rule at all: the start instant is the only occurrence
			e.buf = []time.Time{e.start}
			e.bufIdx = 0
			e.exhausted = true
			break
		}
		if e.rule.Count > 0 && e.produced >= e.rule.Count {
			e.exhausted = true
			return time.Time{}, false
		}

		candidates := e.periodCandidates(e.period)
		e.period++

		// drop everything before the anchor
		kept := candidates[:0]
		for _, c := range candidates {
			if c.Before(e.start) {
				continue
			}
			if !e.rule.Until.IsZero() && c.After(e.rule.Until) {
				e.exhausted = true
				break
			}
			kept = append(kept, c)
		}
		if e.rule.Count > 0 && len(kept) > e.rule.Count-e.produced {
			kept = kept[:e.rule.Count-e.produced]
		}
		e.buf = kept
		e.bufIdx = 0

		if len(kept) == 0 {
			if !e.exhausted {
				base := e.progress
				if base.IsZero() {
					base = e.start
				}
				if e.periodStart(e.period).After(base.AddDate(maxEmptyYears, 0, 0)) {
					e.exhausted = true
				}
				// a bounded window also terminates empty streaks
				if !e.to.IsZero() && e.periodStart(e.period).After(e.to) {
					e.exhausted = true
				}
			}
			continue
		}
		e.progress = e.periodStart(e.period)
	}
	return e.buf[e.bufIdx], true
}

func (e *Expander) advanceRule() {
	e.bufIdx++
	e.produced++
}

// periodStart is the first instant of the n-th period, used only to decide
// when an unproductive expansion has left the window behind.
func (e *Expander) periodStart(n int) time.Time {
	s := e.start
	switch e.rule.Freq {
	case Yearly:
		return s.AddDate(n*e.rule.Interval, 0, 0)
	case Monthly:
		return s.AddDate(0, n*e.rule.Interval, 0)
	case Weekly:
		return s.AddDate(0, 0, n*e.rule.Interval*7)
	case Daily:
		return s.AddDate(0, 0, n*e.rule.Interval)
	case Hourly:
		return s.Add(time.Duration(n*e.rule.Interval) * time.Hour)
	case Minutely:
		return s.Add(time.Duration(n*e.rule.Interval) * time.Minute)
	default:
		return s.Add(time.Duration(n*e.rule.Interval) * time.Second)
	}
}

// periodCandidates generates the sorted candidate instants of the n-th
// period: enumerate the dates the by-rules select inside the period, attach
// the times of day, then apply BYSETPOS. A period with no surviving
// candidate (the 30th of February) contributes nothing; that is not an
// error.
func (e *Expander) periodCandidates(n int) []time.Time {
	r := e.rule

	if r.Freq <= Hourly {
		t := e.periodStart(n)
		if e.subDailyMatch(t) {
			return []time.Time{t}
		}
		return nil
	}

	var dates []time.Time
	switch r.Freq {
	case Daily:
		d := truncateToDay(e.start).AddDate(0, 0, n*r.Interval)
		if e.dateMatches(d) {
			dates = append(dates, d)
		}
	case Weekly:
		dates = e.weeklyDates(n)
	case Monthly:
		dates = e.monthlyDates(n)
	case Yearly:
		dates = e.yearlyDates(n)
	}

	clock := e.timesOfDay()
	candidates := make([]time.Time, 0, len(dates)*len(clock))
	for _, d := range dates {
		for _, c := range clock {
			candidates = append(candidates, time.Date(
				d.Year(), d.Month(), d.Day(),
				c.hour, c.min, c.sec, 0, e.start.Location(),
			))
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	return applySetPos(candidates, r.BySetPos)
}

// dateMatches applies the by-rules that act as filters on a single date.
func (e *Expander) dateMatches(d time.Time) bool {
	r := e.rule
	if len(r.ByMonth) > 0 && !containsInt(r.ByMonth, int(d.Month())) {
		return false
	}
	if len(r.ByMonthDay) > 0 && !matchMonthDay(r.ByMonthDay, d) {
		return false
	}
	if len(r.ByDay) > 0 && !matchWeekday(r.ByDay, d.Weekday()) {
		return false
	}
	return true
}

func (e *Expander) weeklyDates(n int) []time.Time {
	r := e.rule
	ws := weekStart(truncateToDay(e.start), r.WeekStart).AddDate(0, 0, n*r.Interval*7)

	var days []time.Weekday
	if len(r.ByDay) > 0 {
		for _, wd := range r.ByDay {
			days = append(days, wd.Day)
		}
	} else {
		days = []time.Weekday{e.start.Weekday()}
	}

	var dates []time.Time
	for offset := 0; offset < 7; offset++ {
		d := ws.AddDate(0, 0, offset)
		for _, day := range days {
			if d.Weekday() != day {
				continue
			}
			if len(r.ByMonth) > 0 && !containsInt(r.ByMonth, int(d.Month())) {
				continue
			}
			dates = append(dates, d)
			break
		}
	}
	return dates
}

func (e *Expander) monthlyDates(n int) []time.Time {
	r := e.rule
	months := (e.start.Year()*12 + int(e.start.Month()) - 1) + n*r.Interval
	year, month := months/12, time.Month(months%12+1)

	if len(r.ByMonth) > 0 && !containsInt(r.ByMonth, int(month)) {
		return nil
	}
	return e.datesInMonth(year, month)
}

// datesInMonth selects the days of one month according to BYMONTHDAY and
// BYDAY, falling back to the anchor's day of month. Months that lack the
// selected day are skipped.
func (e *Expander) datesInMonth(year int, month time.Month) []time.Time {
	r := e.rule
	loc := e.start.Location()
	dim := daysInMonth(year, month)

	var dates []time.Time
	switch {
	case len(r.ByMonthDay) > 0:
		for _, md := range r.ByMonthDay {
			day := md
			if day < 0 {
				day = dim + 1 + day
			}
			if day < 1 || day > dim {
				continue
			}
			d := time.Date(year, month, day, 0, 0, 0, 0, loc)
			if len(r.ByDay) > 0 && !matchWeekday(r.ByDay, d.Weekday()) {
				continue
			}
			dates = append(dates, d)
		}
	case len(r.ByDay) > 0:
		for _, wd := range r.ByDay {
			if wd.Ordinal != 0 {
				if d, ok := nthWeekdayOfMonth(year, month, wd.Day, wd.Ordinal, loc); ok {
					dates = append(dates, d)
				}
				continue
			}
			for day := 1; day <= dim; day++ {
				d := time.Date(year, month, day, 0, 0, 0, 0, loc)
				if d.Weekday() == wd.Day {
					dates = append(dates, d)
				}
			}
		}
	default:
		if e.start.Day() <= dim {
			dates = append(dates, time.Date(year, month, e.start.Day(), 0, 0, 0, 0, loc))
		}
	}
	return dates
}

func (e *Expander) yearlyDates(n int) []time.Time {
	r := e.rule
	year := e.start.Year() + n*r.Interval
	loc := e.start.Location()

	switch {
	case len(r.ByYearDay) > 0:
		diy := daysInYear(year)
		var dates []time.Time
		for _, yd := range r.ByYearDay {
			day := yd
			if day < 0 {
				day = diy + 1 + day
			}
			if day < 1 || day > diy {
				continue
			}
			d := time.Date(year, 1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, day-1)
			if len(r.ByDay) > 0 && !matchWeekday(r.ByDay, d.Weekday()) {
				continue
			}
			if len(r.ByMonth) > 0 && !containsInt(r.ByMonth, int(d.Month())) {
				continue
			}
			dates = append(dates, d)
		}
		return dates

	case len(r.ByWeekNo) > 0:
		return e.weekNoDates(year)

	case len(r.ByDay) > 0 && len(r.ByMonth) == 0 && len(r.ByMonthDay) == 0:
		// weekday selection scoped to the whole year
		var dates []time.Time
		for _, wd := range r.ByDay {
			if wd.Ordinal != 0 {
				if d, ok := nthWeekdayOfYear(year, wd.Day, wd.Ordinal, loc); ok {
					dates = append(dates, d)
				}
				continue
			}
			for d := time.Date(year, 1, 1, 0, 0, 0, 0, loc); d.Year() == year; d = d.AddDate(0, 0, 1) {
				if d.Weekday() == wd.Day {
					dates = append(dates, d)
				}
			}
		}
		return dates

	default:
		months := r.ByMonth
		if len(months) == 0 {
			months = []int{int(e.start.Month())}
		}
		var dates []time.Time
		for _, m := range months {
			dates = append(dates, e.datesInMonth(year, time.Month(m))...)
		}
		return dates
	}
}

// weekNoDates expands BYWEEKNO for one year: the selected weeks, narrowed
// to the BYDAY weekdays or to the anchor's weekday.
func (e *Expander) weekNoDates(year int) []time.Time {
	r := e.rule
	loc := e.start.Location()
	week1 := firstWeekStart(year, r.WeekStart, loc)
	weeks := weeksInYear(year, r.WeekStart, loc)

	days := make(map[time.Weekday]struct{})
	if len(r.ByDay) > 0 {
		for _, wd := range r.ByDay {
			days[wd.Day] = struct{}{}
		}
	} else {
		days[e.start.Weekday()] = struct{}{}
	}

	var dates []time.Time
	for _, wn := range r.ByWeekNo {
		week := wn
		if week < 0 {
			week = weeks + 1 + week
		}
		if week < 1 || week > weeks {
			continue
		}
		ws := week1.AddDate(0, 0, (week-1)*7)
		for offset := 0; offset < 7; offset++ {
			d := ws.AddDate(0, 0, offset)
			if _, ok := days[d.Weekday()]; ok {
				dates = append(dates, d)
			}
		}
	}
	return dates
}

type clockTime struct {
	hour, min, sec int
}

// timesOfDay expands BYHOUR/BYMINUTE/BYSECOND, defaulting each component
// to the anchor's clock.
func (e *Expander) timesOfDay() []clockTime {
	r := e.rule
	hours := r.ByHour
	if len(hours) == 0 {
		hours = []int{e.start.Hour()}
	}
	mins := r.ByMinute
	if len(mins) == 0 {
		mins = []int{e.start.Minute()}
	}
	secs := r.BySecond
	if len(secs) == 0 {
		secs = []int{e.start.Second()}
	}
	var out []clockTime
	for _, h := range hours {
		for _, m := range mins {
			for _, s := range secs {
				out = append(out, clockTime{h, m, s})
			}
		}
	}
	return out
}

// subDailyMatch applies every by-rule as a plain filter on one instant,
// which is all HOURLY and finer frequencies need.
func (e *Expander) subDailyMatch(t time.Time) bool {
	r := e.rule
	if !e.dateMatches(t) {
		return false
	}
	if len(r.ByHour) > 0 && !containsInt(r.ByHour, t.Hour()) {
		return false
	}
	if len(r.ByMinute) > 0 && !containsInt(r.ByMinute, t.Minute()) {
		return false
	}
	if len(r.BySecond) > 0 && !containsInt(r.BySecond, t.Second()) {
		return false
	}
	return true
}

func applySetPos(candidates []time.Time, setpos []int) []time.Time {
	if len(setpos) == 0 || len(candidates) == 0 {
		return candidates
	}
	var out []time.Time
	for _, pos := range setpos {
		idx := pos
		if idx < 0 {
			idx = len(candidates) + 1 + idx
		}
		if idx < 1 || idx > len(candidates) {
			continue
		}
		out = append(out, candidates[idx-1])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func matchWeekday(days []WeekdayNum, day time.Weekday) bool {
	for _, wd := range days {
		if wd.Day == day {
			return true
		}
	}
	return false
}

func matchMonthDay(monthDays []int, d time.Time) bool {
	dim := daysInMonth(d.Year(), d.Month())
	for _, md := range monthDays {
		day := md
		if day < 0 {
			day = dim + 1 + day
		}
		if day == d.Day() {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func weekStart(d time.Time, wkst time.Weekday) time.Time {
	offset := (int(d.Weekday()) - int(wkst) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysInYear(year int) int {
	return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// firstWeekStart finds the start of week 1: the first week with at least
// four days inside the year, weeks beginning at wkst.
func firstWeekStart(year int, wkst time.Weekday, loc *time.Location) time.Time {
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, loc)
	ws := weekStart(jan1, wkst)
	if jan1.Sub(ws).Hours()/24 > 3 {
		return ws.AddDate(0, 0, 7)
	}
	return ws
}

func weeksInYear(year int, wkst time.Weekday, loc *time.Location) int {
	this := firstWeekStart(year, wkst, loc)
	next := firstWeekStart(year+1, wkst, loc)
	return int(next.Sub(this).Hours() / 24 / 7)
}

func nthWeekdayOfMonth(year int, month time.Month, day time.Weekday, ordinal int, loc *time.Location) (time.Time, bool) {
	dim := daysInMonth(year, month)
	if ordinal > 0 {
		first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		offset := (int(day) - int(first.Weekday()) + 7) % 7
		dom := 1 + offset + (ordinal-1)*7
		if dom > dim {
			return time.Time{}, false
		}
		return time.Date(year, month, dom, 0, 0, 0, 0, loc), true
	}
	last := time.Date(year, month, dim, 0, 0, 0, 0, loc)
	offset := (int(last.Weekday()) - int(day) + 7) % 7
	dom := dim - offset + (ordinal+1)*7
	if dom < 1 {
		return time.Time{}, false
	}
	return time.Date(year, month, dom, 0, 0, 0, 0, loc), true
}

func nthWeekdayOfYear(year int, day time.Weekday, ordinal int, loc *time.Location) (time.Time, bool) {
	diy := daysInYear(year)
	if ordinal > 0 {
		first := time.Date(year, 1, 1, 0, 0, 0, 0, loc)
		offset := (int(day) - int(first.Weekday()) + 7) % 7
		doy := 1 + offset + (ordinal-1)*7
		if doy > diy {
			return time.Time{}, false
		}
		return first.AddDate(0, 0, doy-1), true
	}
	last := time.Date(year, 12, 31, 0, 0, 0, 0, loc)
	offset := (int(last.Weekday()) - int(day) + 7) % 7
	doy := diy - offset + (ordinal+1)*7
	if doy < 1 {
		return time.Time{}, false
	}
	return last.AddDate(0, 0, doy-diy), true
}
