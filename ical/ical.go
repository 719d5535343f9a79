// The `ical` package parses and serializes iCalendar documents.
//
// # References:
// - RFC5545: https://datatracker.ietf.org/doc/html/rfc5545
//
// # Notes:
// - Parsing keeps every component and property, including ones this
//   package has no typed decoder for; unknown values are stored raw so a
//   document survives a parse/serialize round trip untouched.
// - Properties hold their value text exactly as it appeared on the wire.
//   Typed access goes through Property.Decode, which returns a tagged
//   Value; recurrence expansion goes through Expander.
// - Timezone lookups are never ambient: anything that resolves a TZID
//   takes a TimezoneResolver.
//
// # Example usage:
//
// Parse from a file
//	doc, _ := ical.FromFile("path/to/calendar.ics")
//
// Parse from an URL
//	doc, _ := ical.FromURL("https://example.com/calendar.ics")
//
// Marshal to a string -> file
//	output, _ := doc.String()
//	_ = os.WriteFile("path/to/output/calendar.ics", []byte(output), 0644)
//
// Expand a recurrence
//	rule, _ := ical.ParseRecurrenceRule("FREQ=DAILY;COUNT=3")
//	expander := ical.NewExpander(rule, start)
//	for {
//	    t, ok := expander.Next()
//	    if !ok {
//	        break
//	    }
//	    // ...
//	}
package ical

import (
	"net/http"
	"net/url"
	"os"
)

// Unmarshal an iCalendar file into a Document.
func FromFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewCustomError("can't open file", nil, map[string]any{
			"path": path,
			"err":  err,
		})
	}
	defer file.Close()

	return Parse(file)
}

// Unmarshal an iCalendar URL into a Document.
func FromURL(url_ string) (*Document, error) {
	validURL, err := url.ParseRequestURI(url_)
	if err != nil {
		return nil, NewCustomError("can't parse URL", nil, map[string]any{
			"url": url_,
			"err": err,
		})
	}

	resp, err := http.Get(validURL.String())
	if err != nil {
		return nil, NewCustomError("can't make HTTP request", nil, map[string]any{
			"url": url_,
			"err": err,
		})
	}
	defer resp.Body.Close()

	return Parse(resp.Body)
}

// NewCalendar creates a document holding an empty VCALENDAR with the
// given PRODID.
func NewCalendar(prodID string) (*Document, ComponentID) {
	doc := NewDocument()
	root := doc.AddRoot("VCALENDAR")
	cal := doc.Component(root)
	cal.AddProperty(Property{Name: "PRODID", Value: prodID})
	cal.AddProperty(Property{Name: "VERSION", Value: "2.0"})
	return doc, root
}
