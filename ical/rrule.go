package ical

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Frequency int

const (
	Secondly Frequency = iota
	Minutely
	Hourly
	Daily
	Weekly
	Monthly
	Yearly
)

var frequencyNames = map[string]Frequency{
	"SECONDLY": Secondly,
	"MINUTELY": Minutely,
	"HOURLY":   Hourly,
	"DAILY":    Daily,
	"WEEKLY":   Weekly,
	"MONTHLY":  Monthly,
	"YEARLY":   Yearly,
}

func (f Frequency) String() string {
	for name, freq := range frequencyNames {
		if freq == f {
			return name
		}
	}
	return "UNKNOWN"
}

// WeekdayNum is a BYDAY entry: a weekday with an optional ordinal, so MO is
// {Monday, 0}, 2TU is {Tuesday, 2} and -1FR is {Friday, -1}.
type WeekdayNum struct {
	Day     time.Weekday
	Ordinal int
}

var weekdayTokens = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

func weekdayToken(d time.Weekday) string {
	return [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}[d]
}

// RecurrenceRule is a parsed RRULE value. Parsed once, immutable from then
// on, consumed by the Expander. Count == 0 and Until.IsZero() mean unset;
// the two are mutually exclusive per the grammar.
type RecurrenceRule struct {
	Freq     Frequency
	Interval int
	Count    int
	Until    time.Time

	BySecond   []int
	ByMinute   []int
	ByHour     []int
	ByDay      []WeekdayNum
	ByMonthDay []int
	ByYearDay  []int
	ByWeekNo   []int
	ByMonth    []int
	BySetPos   []int

	WeekStart time.Weekday

	hasFreq bool
}

// ParseRecurrenceRule parses an RRULE value such as
// FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=10.
func ParseRecurrenceRule(raw string) (*RecurrenceRule, error) {
	rule := &RecurrenceRule{
		Interval:  1,
		WeekStart: time.Monday,
	}

	fail := func(reason string) (*RecurrenceRule, error) {
		return nil, &ValueDecodeError{Kind: ValueRecur, Raw: raw, Reason: reason}
	}

	for _, part := range strings.Split(raw, ";") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return fail("rule part without '='")
		}
		key := strings.ToUpper(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		var err error
		switch key {
		case "FREQ":
			freq, ok := frequencyNames[strings.ToUpper(val)]
			if !ok {
				return fail("unknown FREQ " + val)
			}
			rule.Freq = freq
			rule.hasFreq = true
		case "INTERVAL":
			rule.Interval, err = strconv.Atoi(val)
			if err != nil || rule.Interval < 1 {
				return fail("INTERVAL must be a positive integer")
			}
		case "COUNT":
			rule.Count, err = strconv.Atoi(val)
			if err != nil || rule.Count < 1 {
				return fail("COUNT must be a positive integer")
			}
		case "UNTIL":
			value, derr := decodeDateTime(val, nil, nil)
			if derr != nil {
				return fail("invalid UNTIL " + val)
			}
			rule.Until = value.Time
		case "BYSECOND":
			rule.BySecond, err = parseIntList(val, 0, 60, false)
		case "BYMINUTE":
			rule.ByMinute, err = parseIntList(val, 0, 59, false)
		case "BYHOUR":
			rule.ByHour, err = parseIntList(val, 0, 23, false)
		case "BYDAY":
			rule.ByDay, err = parseWeekdayList(val)
		case "BYMONTHDAY":
			rule.ByMonthDay, err = parseIntList(val, 1, 31, true)
		case "BYYEARDAY":
			rule.ByYearDay, err = parseIntList(val, 1, 366, true)
		case "BYWEEKNO":
			rule.ByWeekNo, err = parseIntList(val, 1, 53, true)
		case "BYMONTH":
			rule.ByMonth, err = parseIntList(val, 1, 12, false)
		case "BYSETPOS":
			rule.BySetPos, err = parseIntList(val, 1, 366, true)
		case "WKST":
			day, ok := weekdayTokens[strings.ToUpper(val)]
			if !ok {
				return fail("unknown WKST " + val)
			}
			rule.WeekStart = day
		default:
			return fail("unknown rule part " + key)
		}
		if err != nil {
			return fail(fmt.Sprintf("invalid %s: %s", key, err))
		}
	}

	if !rule.hasFreq {
		return fail("FREQ is required")
	}
	if rule.Count > 0 && !rule.Until.IsZero() {
		return fail("COUNT and UNTIL are mutually exclusive")
	}
	return rule, nil
}

// String renders the rule in canonical form: FREQ first, the remaining
// parts in a fixed order, so equal rules serialize identically.
func (r *RecurrenceRule) String() string {
	var sb strings.Builder
	sb.WriteString("FREQ=")
	sb.WriteString(r.Freq.String())

	if r.Interval > 1 {
		fmt.Fprintf(&sb, ";INTERVAL=%d", r.Interval)
	}
	if r.Count > 0 {
		fmt.Fprintf(&sb, ";COUNT=%d", r.Count)
	}
	if !r.Until.IsZero() {
		sb.WriteString(";UNTIL=")
		if r.Until.Location() == time.UTC {
			sb.WriteString(r.Until.Format("20060102T150405Z"))
		} else {
			sb.WriteString(r.Until.Format("20060102T150405"))
		}
	}
	writeIntPart(&sb, "BYSECOND", r.BySecond)
	writeIntPart(&sb, "BYMINUTE", r.ByMinute)
	writeIntPart(&sb, "BYHOUR", r.ByHour)
	if len(r.ByDay) > 0 {
		sb.WriteString(";BYDAY=")
		for i, wd := range r.ByDay {
			if i > 0 {
				sb.WriteByte(',')
			}
			if wd.Ordinal != 0 {
				fmt.Fprintf(&sb, "%d", wd.Ordinal)
			}
			sb.WriteString(weekdayToken(wd.Day))
		}
	}
	writeIntPart(&sb, "BYMONTHDAY", r.ByMonthDay)
	writeIntPart(&sb, "BYYEARDAY", r.ByYearDay)
	writeIntPart(&sb, "BYWEEKNO", r.ByWeekNo)
	writeIntPart(&sb, "BYMONTH", r.ByMonth)
	writeIntPart(&sb, "BYSETPOS", r.BySetPos)
	if r.WeekStart != time.Monday {
		sb.WriteString(";WKST=")
		sb.WriteString(weekdayToken(r.WeekStart))
	}
	return sb.String()
}

func writeIntPart(sb *strings.Builder, name string, values []int) {
	if len(values) == 0 {
		return
	}
	sb.WriteByte(';')
	sb.WriteString(name)
	sb.WriteByte('=')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "%d", v)
	}
}

func parseIntList(val string, min, max int, allowNegative bool) ([]int, error) {
	var out []int
	for _, part := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		abs := n
		if abs < 0 {
			if !allowNegative {
				return nil, fmt.Errorf("%d out of range", n)
			}
			abs = -abs
		}
		if abs < min || abs > max {
			return nil, fmt.Errorf("%d out of range", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseWeekdayList(val string) ([]WeekdayNum, error) {
	var out []WeekdayNum
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if len(part) < 2 {
			return nil, fmt.Errorf("%q is not a weekday", part)
		}
		token := part[len(part)-2:]
		day, ok := weekdayTokens[strings.ToUpper(token)]
		if !ok {
			return nil, fmt.Errorf("%q is not a weekday", token)
		}
		var ordinal int
		if prefix := part[:len(part)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil || n == 0 || n < -53 || n > 53 {
				return nil, fmt.Errorf("bad ordinal in %q", part)
			}
			ordinal = n
		}
		out = append(out, WeekdayNum{Day: day, Ordinal: ordinal})
	}
	return out, nil
}
