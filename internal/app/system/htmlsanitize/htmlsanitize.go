// Package htmlsanitize strips markup from user-supplied text.
//
// Issue titles, descriptions, status notes and user names are stored as plain
// text. Any tags a client sends are removed before the value is validated or
// persisted; entity escapes produced by the policy are undone so that
// "Roads & Streets" round-trips unchanged.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func strict() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// PlainText removes every HTML element from s and trims the result.
// Content of script and style elements is dropped entirely.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(html.UnescapeString(strict().Sanitize(s)))
}

// IsPlainText reports whether s contains no tag-like sequence.
func IsPlainText(s string) bool {
	i := strings.IndexByte(s, '<')
	return i < 0 || !strings.ContainsRune(s[i:], '>')
}
