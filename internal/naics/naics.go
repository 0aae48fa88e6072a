package naics

import (
	"regexp"
	"slices"
	"strings"
)

// Unclassified is the placeholder code for records no tier could place.
const Unclassified = "999999"

var (
	sixDigitRe = regexp.MustCompile(`^\d{6}$`)
	embeddedRe = regexp.MustCompile(`\b\d{6}\b`)
)

// IsValid reports whether code is exactly six digits.
func IsValid(code string) bool {
	return sixDigitRe.MatchString(code)
}

// Extract returns code when it is already six digits, otherwise the first
// six-digit run found inside it, otherwise Unclassified.
func Extract(code string) string {
	code = strings.TrimSpace(code)
	if IsValid(code) {
		return code
	}
	if m := embeddedRe.FindString(code); m != "" {
		return m
	}
	return Unclassified
}

// Normalize pads a 2-5 digit code with trailing zeros. Anything else is
// returned trimmed.
func Normalize(code string) string {
	code = strings.TrimRight(strings.TrimSpace(code), "-")
	if code == "" || len(code) > 6 {
		return code
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	for len(code) < 6 {
		code += "0"
	}
	return code
}

// Sector returns the title of the 2-digit sector for code.
func Sector(code string) string {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return ""
	}
	return sectors[code[:2]]
}

// CodeInfo describes one NAICS code.
type CodeInfo struct {
	Code        string `json:"naics_code"`
	Description string `json:"description"`
	Sector      string `json:"sector,omitempty"`
	Valid       bool   `json:"is_valid"`
}

// Info returns what the registry knows about code.
func Info(code string) CodeInfo {
	code = strings.TrimSpace(code)
	desc := Title(code)
	if desc == "" {
		desc = "Unknown"
	}
	return CodeInfo{
		Code:        code,
		Description: desc,
		Sector:      Sector(code),
		Valid:       Known(code),
	}
}

// Relevance grades a search hit.
type Relevance string

const (
	RelevanceExact       Relevance = "exact"
	RelevancePartial     Relevance = "partial"
	RelevanceDescription Relevance = "description"
)

// Match is one search hit.
type Match struct {
	Code        string    `json:"naics_code"`
	Description string    `json:"description"`
	Keyword     string    `json:"keyword_match"`
	Relevance   Relevance `json:"relevance"`
}

// Search finds codes whose keywords contain (or are contained in) term, then
// codes whose titles contain term. Each code appears at most once per
// keyword hit and description hits skip codes already matched.
func Search(term string) []Match {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	var out []Match
	matched := map[string]bool{}
	for _, kw := range sortedKeywords {
		if !strings.Contains(kw, term) && !strings.Contains(term, kw) {
			continue
		}
		code := keywordCodes[kw]
		rel := RelevancePartial
		if kw == term {
			rel = RelevanceExact
		}
		out = append(out, Match{Code: code, Description: Title(code), Keyword: kw, Relevance: rel})
		matched[code] = true
	}

	codes := make([]string, 0, len(titles))
	for c := range titles {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	for _, c := range codes {
		if matched[c] {
			continue
		}
		if strings.Contains(strings.ToLower(titles[c]), term) {
			out = append(out, Match{Code: c, Description: titles[c], Keyword: term, Relevance: RelevanceDescription})
		}
	}
	return out
}
