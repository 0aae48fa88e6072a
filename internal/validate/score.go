package validate

import (
	"math"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/naics"
)

// Quality status labels.
const (
	StatusHigh        = "high_quality"
	StatusGood        = "good_quality"
	StatusAcceptable  = "acceptable_quality"
	StatusNeedsReview = "needs_review"
)

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func hasName(rec model.Record) bool {
	n := rec.Str(model.FieldBusinessName)
	return n != "" && n != model.Unknown
}

func hasValidPhone(rec model.Record) bool {
	return IsValidPhone(rec.Str(model.FieldPhone))
}

func hasValidAddress(rec model.Record) bool {
	return IsValidAddress(rec.Str(model.FieldAddress))
}

func hasWebsite(rec model.Record) bool {
	w := NormalizeWebsite(rec.Str(model.FieldWebsite))
	return w != model.NotFound && w != InvalidURL
}

func hasEmail(rec model.Record, field string) bool {
	return IsValidEmail(rec.Str(field))
}

// industryKnown is true for a real NAICS code or any industry label.
func industryKnown(rec model.Record) bool {
	code := rec.Str(model.FieldNAICSCode)
	if naics.IsValid(code) && code != naics.Unclassified {
		return true
	}
	return rec.Has(model.FieldIndustry) || rec.Has(model.FieldIndustryPrimary)
}

// DataQuality scores how useful a record is as a lead, 0 to 10.
func DataQuality(rec model.Record) int {
	score := 0
	if hasName(rec) {
		score += 2
	}
	if rec.Has(model.FieldBusinessDescription) {
		score++
	}
	if industryKnown(rec) {
		score++
	}
	if hasValidPhone(rec) {
		score++
	}
	if hasValidAddress(rec) {
		score++
	}
	if hasWebsite(rec) {
		score++
	}
	if rec.Has(model.FieldCEOName) {
		score++
	}
	if hasEmail(rec, model.FieldCEOEmail) {
		score++
	}
	if hasEmail(rec, model.FieldGeneralEmail) {
		score++
	}
	return clamp(score, 0, 10)
}

// Reliability starts at 10 and deducts for missing core contact data, 1 to 10.
func Reliability(rec model.Record) int {
	score := 10
	if !hasName(rec) {
		score -= 3
	}
	if !hasValidPhone(rec) {
		score -= 2
	}
	if !hasValidAddress(rec) {
		score -= 2
	}
	if !hasWebsite(rec) {
		score--
	}
	if rec.Has(model.FieldCEOName) {
		score++
	}
	if hasEmail(rec, model.FieldCEOEmail) {
		score++
	}
	return clamp(score, 1, 10)
}

// Lead rates sales readiness, 0 to 10.
func Lead(rec model.Record) int {
	score := 5
	if rec.Has(model.FieldCompanySize) {
		score++
	}
	if rec.Has(model.FieldServiceType) || rec.Has(model.FieldTechnologyFocus) {
		score++
	}
	switch {
	case hasEmail(rec, model.FieldCEOEmail):
		score += 2
	case hasEmail(rec, model.FieldGeneralEmail):
		score++
	}
	if hasWebsite(rec) {
		score++
	}
	return clamp(score, 0, 10)
}

// Completeness is the share of the expected schema holding real data values,
// as a percentage. Validation bookkeeping does not count, so re-validating a
// record leaves it unchanged.
func Completeness(rec model.Record) int {
	pct := math.Round(100 * float64(rec.DataFieldCount()) / model.ExpectedFieldCount)
	return min(100, int(pct))
}

// Status maps a data quality score to its label.
func Status(score int) string {
	switch {
	case score >= 8:
		return StatusHigh
	case score >= 6:
		return StatusGood
	case score >= 4:
		return StatusAcceptable
	}
	return StatusNeedsReview
}

// ISP quality flags.
const (
	FlagMissingName        = "missing_business_name"
	FlagMissingAddress     = "missing_address"
	FlagMissingPhone       = "missing_phone"
	FlagInvalidPhone       = "invalid_phone_format"
	FlagMissingWebsite     = "missing_website"
	FlagInvalidWebsite     = "invalid_website_format"
	FlagMissingDescription = "missing_description"
	FlagValidationError    = "validation_error"
)

// ISPQuality scores an ISP record from 0.0 to 1.0 and lists what is missing
// or malformed.
func ISPQuality(rec model.Record) (float64, []string) {
	var score float64
	var flags []string

	if rec.Has(model.FieldBusinessName) {
		score += 0.25
	} else {
		flags = append(flags, FlagMissingName)
	}
	if rec.Has(model.FieldAddress) {
		score += 0.15
	} else {
		flags = append(flags, FlagMissingAddress)
	}
	if phone := rec.Str(model.FieldPhone); phone != "" {
		score += 0.20
		if IsValidPhone(phone) {
			score += 0.05
		} else {
			flags = append(flags, FlagInvalidPhone)
		}
	} else {
		flags = append(flags, FlagMissingPhone)
	}
	if site := rec.Str(model.FieldWebsite); site != "" {
		score += 0.15
		if IsValidWebsite(site) {
			score += 0.05
		} else {
			flags = append(flags, FlagInvalidWebsite)
		}
	} else {
		flags = append(flags, FlagMissingWebsite)
	}
	if rec.Has(model.FieldBusinessDescription) {
		score += 0.15
	} else {
		flags = append(flags, FlagMissingDescription)
	}
	if rec.Has(model.FieldServiceType) {
		score += 0.05
	}
	if rec.Has(model.FieldCoverage) {
		score += 0.05
	}
	return math.Round(min(score, 1)*100) / 100, flags
}
