package classify

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/naics"
)

const (
	phrasePoints     = 10
	wordPoints       = 3
	keywordMultiple  = 5
	keywordMaxConf   = 85
	noMatchConf      = 20
	noMatchReasoning = "no clear indicators"
)

// keywordScores sums keyword points per NAICS code.
func keywordScores(t text) map[string]int {
	scores := map[string]int{}
	for _, kw := range naics.Keywords() {
		score := 0
		if t.hasPhrase(kw.Term) {
			score += phrasePoints
		}
		for _, w := range strings.Fields(kw.Term) {
			if t.hasWord(w) {
				score += wordPoints
			}
		}
		if score > 0 {
			scores[kw.Code] += score
		}
	}
	return scores
}

// ClassifyKeywords is the deterministic keyword tier. The highest scoring
// code wins; ties go to the numerically lower code.
func ClassifyKeywords(rec model.Record) model.Classification {
	scores := keywordScores(recordText(rec))

	best, bestScore := "", 0
	for code, s := range scores {
		if s > bestScore || (s == bestScore && code < best) {
			best, bestScore = code, s
		}
	}

	if best == "" {
		return model.Classification{
			NAICSCode:   naics.Unclassified,
			Description: naics.Title(naics.Unclassified),
			Confidence:  noMatchConf,
			Reasoning:   noMatchReasoning,
			Method:      model.MethodKeyword,
		}
	}

	desc := naics.Title(best)
	if desc == "" {
		desc = "Unknown Industry"
	}
	return model.Classification{
		NAICSCode:   best,
		Description: desc,
		Confidence:  min(bestScore*keywordMultiple, keywordMaxConf),
		Reasoning:   fmt.Sprintf("keyword match (score: %d)", bestScore),
		Method:      model.MethodKeyword,
	}
}
