package classify

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/naics"
)

// ISP types in precedence order.
const (
	ISPFiber     = "Fiber"
	ISPCable     = "Cable"
	ISPSatellite = "Satellite"
	ISPDSL       = "DSL"
	ISPWireless  = "Wireless"
	ISPMixed     = "Mixed/Other"
)

const (
	ispCode        = "517311"
	ispCategory    = "Telecommunications"
	ispDescription = "Internet Service Providers"
)

var ispKeywords = []string{
	"internet service provider", "isp", "broadband", "internet",
	"telecommunications", "telecom", "fiber", "cable internet",
	"wireless internet", "satellite internet", "dsl", "high-speed internet",
}

var ispTypeRules = []struct {
	kind  string
	terms []string
}{
	{ISPFiber, []string{"fiber", "fibre"}},
	{ISPCable, []string{"cable", "coax"}},
	{ISPSatellite, []string{"satellite"}},
	{ISPDSL, []string{"dsl", "digital subscriber"}},
	{ISPWireless, []string{"wireless", "radio"}},
}

// ISPClassifier labels records that are already known to be internet
// providers with a delivery technology and a confidence.
type ISPClassifier struct {
	stats *Stats
}

// NewISPClassifier creates an ISPClassifier.
func NewISPClassifier() *ISPClassifier {
	return &ISPClassifier{stats: &Stats{}}
}

// Stats returns the classifier's counters.
func (c *ISPClassifier) Stats() *Stats { return c.stats }

// IsISP reports whether any of parts mentions an internet-service keyword.
// Directory collectors use it to keep only provider listings.
func IsISP(parts ...string) bool {
	return newText(parts...).hasAny(ispKeywords...)
}

// ISPType returns the delivery technology named in t.
func ISPType(name, description, serviceType string) string {
	t := newText(name, description, serviceType)
	for _, r := range ispTypeRules {
		if t.hasAny(r.terms...) {
			return r.kind
		}
	}
	return ISPMixed
}

// ISPConfidence scores how clearly name and description describe an ISP.
func ISPConfidence(name, description string) int {
	t := newText(name, description)
	score := 0
	for _, kw := range ispKeywords {
		if !t.hasPhrase(kw) {
			continue
		}
		switch kw {
		case "internet service provider", "isp":
			score += 30
		case "broadband", "internet":
			score += 20
		default:
			score += 10
		}
	}
	if t.hasAny("telecommunications", "telecom") {
		score += 15
	}
	if t.hasAny("fiber", "cable", "satellite", "dsl") {
		score += 10
	}
	return min(score, 100)
}

// Classify labels rec. Records with no provider wording and no recognizable
// service type get the unclassified code with the default method. It never fails; a panic yields the
// error classification.
func (c *ISPClassifier) Classify(rec model.Record) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = errorResult(eris.Errorf("classify: isp panic: %v", r))
		}
		c.stats.record(res.Classification)
	}()

	name := rec.Str(model.FieldBusinessName)
	desc := rec.Str(model.FieldBusinessDescription)
	service := rec.Str(model.FieldServiceType)
	conf := ISPConfidence(name, desc)
	if conf == 0 && ISPType("", "", service) == ISPMixed {
		return Result{Classification: model.Classification{
			NAICSCode:   naics.Unclassified,
			Description: naics.Title(naics.Unclassified),
			Category:    "Other",
			Confidence:  noMatchConf,
			Reasoning:   noMatchReasoning,
			Method:      model.MethodDefault,
		}}
	}
	return Result{Classification: model.Classification{
		NAICSCode:   ispCode,
		Description: ispDescription,
		Category:    ispCategory,
		ISPType:     ISPType(name, desc, service),
		Confidence:  conf,
		Method:      model.MethodKeyword,
	}}
}
