package ical

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type ValueKind int

const (
	ValueUnknown ValueKind = iota
	ValueText
	ValueDateTime
	ValueDate
	ValueDuration
	ValueRecur
	ValueInteger
	ValueBoolean
)

func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "TEXT"
	case ValueDateTime:
		return "DATE-TIME"
	case ValueDate:
		return "DATE"
	case ValueDuration:
		return "DURATION"
	case ValueRecur:
		return "RECUR"
	case ValueInteger:
		return "INTEGER"
	case ValueBoolean:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged variant over the supported iCalendar value types. Only
// the field matching Kind is meaningful. Values of types this package does
// not understand keep Kind == ValueUnknown with the raw text in Raw, so the
// document still round-trips.
type Value struct {
	Kind ValueKind

	Text     string
	Time     time.Time
	Floating bool // DATE-TIME without zone designator
	Duration time.Duration
	Recur    *RecurrenceRule
	Integer  int64
	Boolean  bool
	Raw      string
}

// TimezoneResolver maps a TZID onto a concrete location. It is passed
// explicitly wherever zoned date-times are decoded; there is no package
// global to swap out.
type TimezoneResolver interface {
	LoadLocation(name string) (*time.Location, error)
}

type systemTimezones struct{}

func (systemTimezones) LoadLocation(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}

// SystemTimezones resolves TZIDs against the host timezone database.
func SystemTimezones() TimezoneResolver {
	return systemTimezones{}
}

var (
	datePattern      = regexp.MustCompile(`^\d{8}$`)
	localTimePattern = regexp.MustCompile(`^\d{8}T\d{6}$`)
	utcTimePattern   = regexp.MustCompile(`^\d{8}T\d{6}Z$`)
)

// defaultValueKinds maps property names to the value type they carry when
// no VALUE parameter says otherwise. Everything else defaults to TEXT.
var defaultValueKinds = map[string]ValueKind{
	"DTSTART":          ValueDateTime,
	"DTEND":            ValueDateTime,
	"DTSTAMP":          ValueDateTime,
	"DUE":              ValueDateTime,
	"COMPLETED":        ValueDateTime,
	"CREATED":          ValueDateTime,
	"LAST-MODIFIED":    ValueDateTime,
	"RECURRENCE-ID":    ValueDateTime,
	"EXDATE":           ValueDateTime,
	"RDATE":            ValueDateTime,
	"DURATION":         ValueDuration,
	"TRIGGER":          ValueDuration,
	"RRULE":            ValueRecur,
	"EXRULE":           ValueRecur,
	"SEQUENCE":         ValueInteger,
	"PRIORITY":         ValueInteger,
	"PERCENT-COMPLETE": ValueInteger,
	"REPEAT":           ValueInteger,
}

// valueKindNames maps VALUE parameter tokens onto kinds.
var valueKindNames = map[string]ValueKind{
	"TEXT":      ValueText,
	"DATE-TIME": ValueDateTime,
	"DATE":      ValueDate,
	"DURATION":  ValueDuration,
	"RECUR":     ValueRecur,
	"INTEGER":   ValueInteger,
	"BOOLEAN":   ValueBoolean,
}

// DefaultValueKind is the type a property's value decodes as when it has no
// VALUE parameter.
func DefaultValueKind(propName string) ValueKind {
	if kind, ok := defaultValueKinds[strings.ToUpper(propName)]; ok {
		return kind
	}
	return ValueText
}

// Decode turns the property's raw value into a typed Value. The declared
// VALUE parameter wins over the property's default type. A VALUE parameter
// this package does not know keeps the value raw rather than failing.
func (p *Property) Decode(tz TimezoneResolver) (Value, error) {
	kind := DefaultValueKind(p.Name)
	if declared, ok := p.Param("VALUE"); ok {
		named, known := valueKindNames[strings.ToUpper(declared)]
		if !known {
			return Value{Kind: ValueUnknown, Raw: p.Value}, nil
		}
		kind = named
	}
	return DecodeValue(p.Value, kind, p, tz)
}

// DecodeValue decodes a raw value as the given kind. The property is
// consulted for parameters that shape decoding, TZID in particular; it may
// be nil when there is none.
func DecodeValue(raw string, kind ValueKind, prop *Property, tz TimezoneResolver) (Value, error) {
	switch kind {
	case ValueText:
		return Value{Kind: ValueText, Text: UnescapeText(raw)}, nil
	case ValueDate:
		t, err := decodeDate(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueDate, Time: t}, nil
	case ValueDateTime:
		return decodeDateTime(raw, prop, tz)
	case ValueDuration:
		dur, err := ParseDuration(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueDuration, Duration: dur}, nil
	case ValueRecur:
		rule, err := ParseRecurrenceRule(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueRecur, Recur: rule}, nil
	case ValueInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, &ValueDecodeError{Kind: ValueInteger, Raw: raw, Reason: "not an integer"}
		}
		return Value{Kind: ValueInteger, Integer: n}, nil
	case ValueBoolean:
		switch strings.ToUpper(raw) {
		case "TRUE":
			return Value{Kind: ValueBoolean, Boolean: true}, nil
		case "FALSE":
			return Value{Kind: ValueBoolean, Boolean: false}, nil
		default:
			return Value{}, &ValueDecodeError{Kind: ValueBoolean, Raw: raw, Reason: "expected TRUE or FALSE"}
		}
	default:
		return Value{Kind: ValueUnknown, Raw: raw}, nil
	}
}

func decodeDate(raw string) (time.Time, error) {
	if !datePattern.MatchString(raw) {
		return time.Time{}, &ValueDecodeError{Kind: ValueDate, Raw: raw, Reason: "expected YYYYMMDD"}
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return time.Time{}, &ValueDecodeError{Kind: ValueDate, Raw: raw, Reason: err.Error()}
	}
	return t, nil
}

// decodeDateTime distinguishes the three RFC 5545 forms:
//   - 20240101T090000Z        UTC
//   - 20240101T090000 + TZID  zoned
//   - 20240101T090000         floating, interpreted in the local zone
//
// A DATE-shaped value is tolerated here too, since feeds routinely omit
// VALUE=DATE on all-day DTSTARTs.
func decodeDateTime(raw string, prop *Property, tz TimezoneResolver) (Value, error) {
	switch {
	case utcTimePattern.MatchString(raw):
		t, err := time.Parse("20060102T150405Z", raw)
		if err != nil {
			return Value{}, &ValueDecodeError{Kind: ValueDateTime, Raw: raw, Reason: err.Error()}
		}
		return Value{Kind: ValueDateTime, Time: t}, nil
	case localTimePattern.MatchString(raw):
		var tzid string
		if prop != nil {
			tzid, _ = prop.Param("TZID")
		}
		if tzid == "" {
			t, err := time.ParseInLocation("20060102T150405", raw, time.Local)
			if err != nil {
				return Value{}, &ValueDecodeError{Kind: ValueDateTime, Raw: raw, Reason: err.Error()}
			}
			return Value{Kind: ValueDateTime, Time: t, Floating: true}, nil
		}
		if tz == nil {
			tz = SystemTimezones()
		}
		location, err := tz.LoadLocation(tzid)
		if err != nil {
			return Value{}, &ValueDecodeError{Kind: ValueDateTime, Raw: raw, Reason: fmt.Sprintf("invalid TZID: %s", err)}
		}
		t, err := time.ParseInLocation("20060102T150405", raw, location)
		if err != nil {
			return Value{}, &ValueDecodeError{Kind: ValueDateTime, Raw: raw, Reason: err.Error()}
		}
		return Value{Kind: ValueDateTime, Time: t}, nil
	case datePattern.MatchString(raw):
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return Value{}, &ValueDecodeError{Kind: ValueDateTime, Raw: raw, Reason: err.Error()}
		}
		return Value{Kind: ValueDate, Time: t}, nil
	default:
		return Value{}, &ValueDecodeError{Kind: ValueDateTime, Raw: raw, Reason: "invalid date-time format"}
	}
}

// Encode renders the value back into raw property-value text. A zoned
// DATE-TIME comes out in the local form without its zone; the caller must
// emit the TZID parameter alongside it to keep the zone on the wire.
func (v *Value) Encode() string {
	switch v.Kind {
	case ValueText:
		return EscapeText(v.Text)
	case ValueDate:
		return v.Time.Format("20060102")
	case ValueDateTime:
		if v.Floating {
			return v.Time.Format("20060102T150405")
		}
		if v.Time.Location() == time.UTC {
			return v.Time.Format("20060102T150405Z")
		}
		return v.Time.Format("20060102T150405")
	case ValueDuration:
		return FormatDuration(v.Duration)
	case ValueRecur:
		return v.Recur.String()
	case ValueInteger:
		return strconv.FormatInt(v.Integer, 10)
	case ValueBoolean:
		if v.Boolean {
			return "TRUE"
		}
		return "FALSE"
	default:
		return v.Raw
	}
}

// UnescapeText reverses RFC 5545 text escaping: \n and \N become a newline,
// \, \; and \\ drop the backslash. A backslash before anything else is kept
// as-is, which tolerates sloppy feeds.
func UnescapeText(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			sb.WriteByte('\n')
		case ',', ';', '\\':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// EscapeText applies RFC 5545 text escaping.
func EscapeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			sb.WriteString(`\\`)
		case ';':
			sb.WriteString(`\;`)
		case ',':
			sb.WriteString(`\,`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			// CR only ever appears as part of CRLF in text values
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// ParseDuration parses an RFC 5545 dur-value such as P1D, PT1H30M, -P2W or
// P1DT12H. Months and years are not part of the grammar.
func ParseDuration(raw string) (time.Duration, error) {
	s := raw
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, &ValueDecodeError{Kind: ValueDuration, Raw: raw, Reason: "missing P designator"}
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	components := 0
	num := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			if num < 0 {
				num = 0
			}
			num = num*10 + int(c-'0')
			continue
		}
		if c == 'T' {
			if inTime {
				return 0, &ValueDecodeError{Kind: ValueDuration, Raw: raw, Reason: "duplicate T designator"}
			}
			inTime = true
			continue
		}
		if num < 0 {
			return 0, &ValueDecodeError{Kind: ValueDuration, Raw: raw, Reason: "designator without digits"}
		}
		var unit time.Duration
		switch {
		case c == 'W' && !inTime:
			unit = 7 * 24 * time.Hour
		case c == 'D' && !inTime:
			unit = 24 * time.Hour
		case c == 'H' && inTime:
			unit = time.Hour
		case c == 'M' && inTime:
			unit = time.Minute
		case c == 'S' && inTime:
			unit = time.Second
		default:
			return 0, &ValueDecodeError{Kind: ValueDuration, Raw: raw, Reason: fmt.Sprintf("unexpected designator %q", c)}
		}
		total += time.Duration(num) * unit
		components++
		num = -1
	}
	if num >= 0 {
		return 0, &ValueDecodeError{Kind: ValueDuration, Raw: raw, Reason: "trailing digits"}
	}
	if components == 0 {
		return 0, &ValueDecodeError{Kind: ValueDuration, Raw: raw, Reason: "empty duration"}
	}
	if negative {
		total = -total
	}
	return total, nil
}

// FormatDuration renders a duration in RFC 5545 form. Sub-second precision
// is truncated.
func FormatDuration(d time.Duration) string {
	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}
	sb.WriteByte('P')

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	if days > 0 && days%7 == 0 && hours == 0 && minutes == 0 && seconds == 0 {
		fmt.Fprintf(&sb, "%dW", days/7)
		return sb.String()
	}
	if days > 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}
	if hours > 0 || minutes > 0 || seconds > 0 || days == 0 {
		sb.WriteByte('T')
		if hours > 0 {
			fmt.Fprintf(&sb, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&sb, "%dM", minutes)
		}
		if seconds > 0 || (hours == 0 && minutes == 0) {
			fmt.Fprintf(&sb, "%dS", seconds)
		}
	}
	return sb.String()
}
