package model

import (
	"regexp"
	"strings"
)

var (
	warningKeyStrip    = regexp.MustCompile(`[^a-z0-9\s]`)
	warningKeyCollapse = regexp.MustCompile(`\s+`)
)

// WarningKey derives the stable matching key for dismissals and notes
// from a warning title: lowercase, strip everything outside [a-z0-9\s],
// collapse whitespace runs to single underscores, truncate to 50 chars.
// Dismiss/match round-trips depend on this being reproduced exactly.
func WarningKey(title string) string {
	key := strings.ToLower(title)
	key = warningKeyStrip.ReplaceAllString(key, "")
	key = warningKeyCollapse.ReplaceAllString(key, "_")
	if len(key) > 50 {
		key = key[:50]
	}
	return key
}
