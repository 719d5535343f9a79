package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CleanupSummary normalizes a user-typed event summary: collapse whitespace
// runs, uppercase the first letter of each word, drop a trailing period.
func CleanupSummary(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = cases.Title(language.English).String(s)
	return strings.TrimSuffix(s, ".")
}
