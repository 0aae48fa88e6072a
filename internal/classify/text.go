package classify

import (
	"strings"
	"unicode"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// text is a tokenized, lower-cased document. Matching works on whole words
// so "bar" does not match "barber".
type text struct {
	words []string
	set   map[string]bool
}

func newText(parts ...string) text {
	words := tokenize(strings.Join(parts, " "))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return text{words: words, set: set}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hasWord reports whether w appears as a whole word.
func (t text) hasWord(w string) bool {
	return t.set[w]
}

// hasPhrase reports whether phrase appears as a contiguous run of words.
func (t text) hasPhrase(phrase string) bool {
	p := tokenize(phrase)
	if len(p) == 0 {
		return false
	}
	if len(p) == 1 {
		return t.set[p[0]]
	}
	for i := 0; i+len(p) <= len(t.words); i++ {
		match := true
		for j := range p {
			if t.words[i+j] != p[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (t text) hasAny(phrases ...string) bool {
	for _, p := range phrases {
		if t.hasPhrase(p) {
			return true
		}
	}
	return false
}

func (t text) empty() bool {
	return len(t.words) == 0
}

// recordText is the text the general classifiers look at.
func recordText(rec model.Record) text {
	return newText(
		rec.Str(model.FieldBusinessName),
		rec.Str(model.FieldBusinessDescription),
		rec.Str(model.FieldIndustry),
		rec.Str(model.FieldCategories),
	)
}
