package model

import "strings"

// Method records which path produced a classification. MethodDefault marks
// the placeholder given to records the ISP path does not recognize as
// providers.
type Method string

const (
	MethodAI      Method = "ai"
	MethodKeyword Method = "keyword"
	MethodDefault Method = "default"
	MethodError   Method = "error"
)

// UnclassifiedCode is the NAICS placeholder for records no tier could place.
const UnclassifiedCode = "999999"

// Classification is the industry assignment for one record.
type Classification struct {
	NAICSCode   string   `json:"naics_code"`
	Description string   `json:"industry_description"`
	Category    string   `json:"industry_category,omitempty"`
	Primary     string   `json:"industry_primary,omitempty"`
	Secondary   []string `json:"industry_secondary,omitempty"`
	ISPType     string   `json:"isp_type,omitempty"`
	Confidence  int      `json:"confidence_score"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Method      Method   `json:"classification_method"`
}

// ErrorClassification is assigned when classification fails internally.
func ErrorClassification(reason string) Classification {
	return Classification{
		NAICSCode:   UnclassifiedCode,
		Description: "Unclassified Establishments",
		Category:    "Other",
		Confidence:  0,
		Reasoning:   reason,
		Method:      MethodError,
	}
}

// Apply writes the classification into rec. Confidence is clamped to
// [0,100] and forced to 0 for the error method.
func (c Classification) Apply(rec Record) {
	conf := min(max(c.Confidence, 0), 100)
	if c.Method == MethodError {
		conf = 0
	}
	rec.Set(FieldNAICSCode, c.NAICSCode)
	rec.Set(FieldIndustryDescription, c.Description)
	rec.Set(FieldConfidenceScore, conf)
	rec.Set(FieldClassificationMethod, string(c.Method))
	if c.Category != "" {
		rec.Set(FieldIndustryCategory, c.Category)
	}
	if c.Primary != "" {
		rec.Set(FieldIndustryPrimary, c.Primary)
	}
	if len(c.Secondary) > 0 {
		rec.Set(FieldIndustrySecondary, strings.Join(c.Secondary, ", "))
	}
	if c.ISPType != "" {
		rec.Set(FieldISPType, c.ISPType)
	}
	if c.Reasoning != "" {
		rec.Set(FieldClassificationReasoning, c.Reasoning)
	}
}
