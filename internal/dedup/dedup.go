// Package dedup removes duplicate business records. Exact matching keys on
// phone digits or a normalized name; fuzzy matching is a word-overlap
// heuristic over names used for directory data where phones are unreliable.
package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// fuzzyOverlap is the share of a name's words that must be shared.
const fuzzyOverlap = 0.6

// NormalizeName lower-cases s, folds accents, strips punctuation and
// collapses whitespace.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// phoneDigits returns the digits of s with the North American country code
// dropped, so 1-555-123-4567 and 555-123-4567 agree.
func phoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	return d
}

// Key returns the identity key Exact deduplicates on: phone digits when
// present, else the normalized name. It is empty when neither is usable.
func Key(rec model.Record) string {
	if d := phoneDigits(rec.Str(model.FieldPhone)); d != "" {
		return "phone:" + d
	}
	name := rec.Str(model.FieldBusinessName)
	if name == model.Unknown {
		return ""
	}
	if n := NormalizeName(name); n != "" {
		return "name:" + n
	}
	return ""
}

// Exact keeps the first record seen per identity key, in input order.
// Records with no usable key are always kept.
func Exact(records []model.Record) []model.Record {
	out := make([]model.Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		k := Key(rec)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, rec)
	}
	return out
}

// FuzzyOptions configures Fuzzy.
type FuzzyOptions struct {
	// Merge fills the survivor's missing fields from its duplicates instead
	// of discarding them.
	Merge bool
}

type wordSet map[string]struct{}

func words(name string) wordSet {
	ws := wordSet{}
	for _, w := range strings.Fields(NormalizeName(name)) {
		ws[w] = struct{}{}
	}
	return ws
}

func similar(a, b wordSet) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	if shared < 2 {
		return false
	}
	return float64(shared)/float64(len(a)) > fuzzyOverlap ||
		float64(shared)/float64(len(b)) > fuzzyOverlap
}

// SameBusiness reports whether two names likely refer to one business: at
// least two shared words covering more than 60% of either name.
func SameBusiness(a, b string) bool {
	return similar(words(a), words(b))
}

// Fuzzy drops records whose name is similar to an earlier record's. This is
// a heuristic and can merge distinct businesses with generic names.
// Survivors are copies; input records are never modified.
func Fuzzy(records []model.Record, opts FuzzyOptions) []model.Record {
	out := make([]model.Record, 0, len(records))
	sets := make([]wordSet, 0, len(records))

	for _, rec := range records {
		ws := words(rec.Str(model.FieldBusinessName))
		match := -1
		for i, kept := range sets {
			if similar(ws, kept) {
				match = i
				break
			}
		}
		if match < 0 {
			out = append(out, rec.Clone())
			sets = append(sets, ws)
			continue
		}
		if opts.Merge {
			merge(out[match], rec)
		}
	}
	return out
}

func merge(into, from model.Record) {
	for k, v := range from {
		if k == model.FieldValidationFlags {
			continue
		}
		into.Upgrade(k, v)
	}
}
