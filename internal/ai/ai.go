// Package ai asks language models for a NAICS classification. Providers are
// tried in order (local models first, then hosted APIs) behind a single
// Classifier.
package ai

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ErrNoProvider is returned when no provider is configured or every
// provider in the chain failed.
var ErrNoProvider = eris.New("ai: no provider available")

// Business is the subset of a record sent to a model.
type Business struct {
	Name        string `json:"company_name"`
	Description string `json:"business_description"`
	Industry    string `json:"industry,omitempty"`
	Category    string `json:"category,omitempty"`
	Website     string `json:"website,omitempty"`
	Address     string `json:"address,omitempty"`
}

// BusinessFromRecord extracts the prompt fields from a record.
func BusinessFromRecord(rec model.Record) Business {
	return Business{
		Name:        rec.Str(model.FieldBusinessName),
		Description: rec.Str(model.FieldBusinessDescription),
		Industry:    rec.Str(model.FieldIndustry),
		Category:    rec.Str(model.FieldCategories),
		Website:     rec.Str(model.FieldWebsite),
		Address:     rec.Str(model.FieldAddress),
	}
}

// Empty reports whether there is nothing worth sending.
func (b Business) Empty() bool {
	return strings.TrimSpace(b.Name+b.Description+b.Industry+b.Category) == ""
}

// Result is a model's answer.
type Result struct {
	Success     bool   `json:"success"`
	NAICSCode   string `json:"naics_code"`
	Description string `json:"industry_description"`
	Confidence  int    `json:"confidence_score"`
	Reasoning   string `json:"reasoning"`
	Model       string `json:"model"`
	Source      string `json:"source"`
}

// Classifier classifies a business by industry.
type Classifier interface {
	ClassifyIndustry(ctx context.Context, b Business) (*Result, error)
}

// Noop never classifies. It stands in when no provider is enabled.
type Noop struct{}

// ClassifyIndustry implements Classifier.
func (Noop) ClassifyIndustry(context.Context, Business) (*Result, error) {
	return nil, ErrNoProvider
}
