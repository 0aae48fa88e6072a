package classify

import (
	"regexp"

	"github.com/sells-group/leadgen-cli/internal/model"
)

type weightedPattern struct {
	re     *regexp.Regexp
	weight int
}

type industryPatterns struct {
	name     string
	patterns []weightedPattern
}

func wp(pattern string, weight int) weightedPattern {
	return weightedPattern{re: regexp.MustCompile(`(?i)\b` + pattern + `\b`), weight: weight}
}

// industries is evaluated in order; earlier entries win ties.
var industries = []industryPatterns{
	{"Internet Service Provider", []weightedPattern{
		wp(`isp`, 5), wp(`internet service`, 5), wp(`broadband`, 4), wp(`fiber optic`, 4),
		wp(`telecommunications`, 3), wp(`cable internet`, 4), wp(`wireless internet`, 4),
		wp(`network provider`, 3),
	}},
	{"Telecommunications", []weightedPattern{
		wp(`telecommunications?`, 5), wp(`telecom`, 4), wp(`phone service`, 3),
		wp(`wireless`, 3), wp(`cellular`, 3), wp(`mobile service`, 3),
	}},
	{"Software Development", []weightedPattern{
		wp(`software development`, 5), wp(`programming`, 4), wp(`application development`, 4),
		wp(`web development`, 4), wp(`mobile app`, 3), wp(`custom software`, 4),
	}},
	{"IT Services", []weightedPattern{
		wp(`it services`, 5), wp(`information technology`, 4), wp(`computer support`, 3),
		wp(`network services`, 3), wp(`tech support`, 3), wp(`managed services`, 4),
	}},
	{"Medical Practice", []weightedPattern{
		wp(`medical`, 4), wp(`physician`, 5), wp(`doctor`, 4), wp(`clinic`, 4),
		wp(`healthcare`, 3), wp(`dental`, 4), wp(`dentist`, 5),
	}},
	{"Legal Services", []weightedPattern{
		wp(`law firm`, 5), wp(`attorney`, 5), wp(`lawyer`, 5), wp(`legal services`, 5),
		wp(`paralegal`, 3),
	}},
	{"Real Estate", []weightedPattern{
		wp(`real estate`, 5), wp(`realtor`, 5), wp(`property management`, 4),
		wp(`home sales`, 3), wp(`commercial property`, 4),
	}},
	{"Restaurant", []weightedPattern{
		wp(`restaurant`, 5), wp(`food service`, 4), wp(`dining`, 3), wp(`cafe`, 4),
		wp(`bistro`, 4), wp(`eatery`, 4),
	}},
	{"Retail", []weightedPattern{
		wp(`retail`, 4), wp(`store`, 3), wp(`shop`, 3), wp(`sales`, 2), wp(`merchandise`, 3),
	}},
	{"Manufacturing", []weightedPattern{
		wp(`manufacturing`, 5), wp(`factory`, 4), wp(`production`, 3), wp(`industrial`, 3),
		wp(`assembly`, 3),
	}},
	{"Construction", []weightedPattern{
		wp(`construction`, 5), wp(`contractor`, 4), wp(`building`, 3), wp(`renovation`, 3),
		wp(`remodeling`, 3),
	}},
	{"Consulting", []weightedPattern{
		wp(`consulting`, 5), wp(`consultant`, 4), wp(`advisory`, 3), wp(`business services`, 3),
	}},
	{"Accounting", []weightedPattern{
		wp(`accounting`, 5), wp(`accountant`, 5), wp(`cpa`, 5), wp(`bookkeeping`, 4),
		wp(`tax preparation`, 4),
	}},
	{"Insurance", []weightedPattern{
		wp(`insurance`, 5), wp(`coverage`, 3), wp(`policy`, 3), wp(`claims`, 3),
	}},
}

// industryCodes maps an industry name to its NAICS code.
var industryCodes = map[string]string{
	"Internet Service Provider": "517311",
	"Telecommunications":        "517000",
	"Software Development":      "541511",
	"IT Services":               "541512",
	"Computer Services":         "541510",
	"Medical Practice":          "621111",
	"Legal Services":            "541110",
	"Accounting":                "541211",
	"Real Estate":               "531210",
	"Insurance":                 "524210",
	"Banking":                   "522110",
	"Restaurant":                "722511",
	"Retail":                    "441000",
	"Manufacturing":             "311000",
	"Construction":              "236100",
	"Consulting":                "541611",
	"Marketing Services":        "541810",
	"Engineering Services":      "541330",
}

var industryGroups = map[string][]string{
	"Technology": {
		"Software Development", "Internet Service Provider", "Computer Services",
		"IT Services", "Telecommunications", "Data Processing",
	},
	"Healthcare": {
		"Medical Practice", "Healthcare Services", "Pharmaceutical",
		"Medical Equipment", "Dental Services",
	},
	"Financial Services": {
		"Banking", "Insurance", "Investment Services", "Real Estate",
		"Financial Planning", "Accounting",
	},
	"Professional Services": {
		"Legal Services", "Consulting", "Marketing Services",
		"Engineering Services", "Architectural Services",
	},
	"Manufacturing": {
		"Manufacturing", "Construction", "Industrial Services",
		"Automotive", "Aerospace",
	},
	"Retail/Commerce": {
		"Retail", "E-commerce", "Wholesale", "Food Services",
		"Restaurant", "Hospitality",
	},
	"Energy/Utilities": {
		"Utilities", "Energy Services", "Oil and Gas",
		"Renewable Energy", "Environmental Services",
	},
}

// groupOf is the inverse of industryGroups.
var groupOf = func() map[string]string {
	m := map[string]string{}
	for group, names := range industryGroups {
		for _, n := range names {
			m[n] = group
		}
	}
	return m
}()

// Group returns the high-level group for an industry, or "Other".
func Group(industry string) string {
	if g, ok := groupOf[industry]; ok {
		return g
	}
	return "Other"
}

// IndustryCode returns the NAICS code for an industry name.
func IndustryCode(industry string) (string, bool) {
	c, ok := industryCodes[industry]
	return c, ok
}

// IndustryMatch is the result of the weighted pattern scheme.
type IndustryMatch struct {
	Industry  string
	Group     string
	NAICSCode string
	// Score is the normalized pattern score on a 1-10 scale.
	Score     int
	Secondary []string
}

func rawScore(ind industryPatterns, s string) (score, matches int) {
	for _, p := range ind.patterns {
		if p.re.MatchString(s) {
			score += p.weight
			matches++
		}
	}
	return score, matches
}

// ClassifyIndustry scores s against every industry and returns the one with
// the highest score normalized by its pattern count. ok is false when
// nothing matched.
func ClassifyIndustry(s string) (IndustryMatch, bool) {
	best := ""
	var bestNorm float64
	for _, ind := range industries {
		score, matches := rawScore(ind, s)
		if matches == 0 {
			continue
		}
		norm := float64(score) / float64(len(ind.patterns))
		if norm > bestNorm {
			best, bestNorm = ind.name, norm
		}
	}
	if best == "" {
		return IndustryMatch{Industry: "Unknown", Group: "Other", Score: 1}, false
	}
	return IndustryMatch{
		Industry:  best,
		Group:     Group(best),
		NAICSCode: industryCodes[best],
		Score:     min(10, int(bestNorm*10)),
		Secondary: Secondary(s, best),
	}, true
}

// Secondary returns up to three other industries whose raw score is at
// least 2, in table order.
func Secondary(s, primary string) []string {
	var out []string
	for _, ind := range industries {
		if ind.name == primary {
			continue
		}
		if score, _ := rawScore(ind, s); score >= 2 {
			out = append(out, ind.name)
			if len(out) == 3 {
				break
			}
		}
	}
	return out
}

// annotate adds the industry scheme's primary, group and secondary labels.
func annotate(c *model.Classification, rec model.Record) {
	s := rec.Str(model.FieldBusinessName) + " " +
		rec.Str(model.FieldBusinessDescription) + " " +
		rec.Str(model.FieldIndustry)
	m, ok := ClassifyIndustry(s)
	if !ok {
		if c.Category == "" {
			c.Category = "Other"
		}
		return
	}
	c.Primary = m.Industry
	c.Category = m.Group
	c.Secondary = m.Secondary
}
