// Package validate cleans contact fields and scores record quality.
// Field functions are pure and never panic; the validators wrap them with a
// recover so one malformed record cannot stop a run.
package validate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Sentinels written in place of values that failed validation.
const (
	InvalidEmail = "INVALID_EMAIL"
	InvalidURL   = "INVALID_URL"
)

const maxDescriptionLen = 500

var (
	phoneRE     = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)
	emailRE     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	websiteRE   = regexp.MustCompile(`^https?://.+\..+`)
	stateZipRE  = regexp.MustCompile(`([A-Z]{2})\s+(\d{5})`)
	nameSuffix  = strings.NewReplacer(" inc.", " Inc.", " llc", " LLC", " corp.", " Corp.", " ltd.", " Ltd.", " co.", " Co.")
	unsetValues = map[string]bool{"": true, model.NotFound: true, "None": true, "null": true}
)

func blank(s string) bool {
	return unsetValues[strings.TrimSpace(s)]
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone formats 10-digit (or 1-prefixed 11-digit) numbers as
// (XXX) XXX-XXXX. Anything else is returned unchanged; empty input yields
// NOT_FOUND.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if blank(s) {
		return model.NotFound
	}
	d := digits(s)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return s
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

// IsValidPhone reports whether s is a well-formed North American number.
func IsValidPhone(s string) bool {
	return phoneRE.MatchString(strings.TrimSpace(s))
}

// ValidateEmail returns the lower-cased address, INVALID_EMAIL, or
// NOT_FOUND for empty input.
func ValidateEmail(s string) string {
	if blank(s) {
		return model.NotFound
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if emailRE.MatchString(s) {
		return s
	}
	return InvalidEmail
}

// IsValidEmail reports whether s is a well-formed address.
func IsValidEmail(s string) bool {
	return emailRE.MatchString(strings.TrimSpace(s))
}

func withScheme(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return "https://" + s
}

// NormalizeWebsite prepends https:// when no scheme is present and returns
// INVALID_URL for values that still do not look like a URL.
func NormalizeWebsite(s string) string {
	s = strings.TrimSpace(s)
	if blank(s) {
		return model.NotFound
	}
	s = withScheme(s)
	if websiteRE.MatchString(s) {
		return s
	}
	return InvalidURL
}

// IsValidWebsite reports whether s parses as a URL with scheme and host once
// https:// is prepended where missing.
func IsValidWebsite(s string) bool {
	s = strings.TrimSpace(s)
	if blank(s) || s == InvalidURL {
		return false
	}
	u, err := url.Parse(withScheme(s))
	return err == nil && u.Scheme != "" && u.Host != ""
}

// IsValidAddress is a loose street-address check: longer than 10 characters
// and containing a digit.
func IsValidAddress(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) <= 10 {
		return false
	}
	return strings.ContainsFunc(s, unicode.IsDigit)
}

// CleanName collapses whitespace and capitalizes common entity suffixes.
func CleanName(s string) string {
	return strings.TrimSpace(nameSuffix.Replace(collapse(s)))
}

// CleanDescription collapses whitespace and truncates long text with an
// ellipsis.
func CleanDescription(s string) string {
	s = collapse(s)
	r := []rune(s)
	if len(r) <= maxDescriptionLen {
		return s
	}
	return string(r[:maxDescriptionLen-3]) + "..."
}

// Address is the parsed city, state and ZIP of a one-line US address.
type Address struct {
	City  string
	State string
	Zip   string
}

// ParseAddress splits "street, city, ST 12345". Parts that cannot be found
// are left empty.
func ParseAddress(s string) Address {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var a Address
	if len(parts) >= 2 {
		a.City = parts[len(parts)-2]
	}
	if m := stateZipRE.FindStringSubmatch(parts[len(parts)-1]); m != nil {
		a.State, a.Zip = m[1], m[2]
	}
	return a
}
