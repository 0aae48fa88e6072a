package export

import (
	"fmt"
	"strings"
	"time"
)

const maxSlugLen = 50

// Slugify turns free text into a filename-safe fragment: lower-cased, spaces
// and slashes become underscores, commas are dropped and anything outside
// [a-z0-9_-] is removed. Empty input yields "unknown".
func Slugify(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.NewReplacer(" ", "_", "/", "_", ",", "").Replace(strings.ToLower(s))

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > maxSlugLen {
		out = out[:maxSlugLen]
	}
	return out
}

// Filename builds <prefix>_<query>_<location>_<YYYYMMDD_HHMMSS>.csv.
func Filename(prefix, query, location string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv", prefix, Slugify(query), Slugify(location), now.Format("20060102_150405"))
}
