// Package normalize canonicalizes user-supplied strings before they are
// validated or stored.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Category trims a category and collapses inner runs of whitespace.
// Blank categories become "Other".
func Category(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "Other"
	}
	return s
}
