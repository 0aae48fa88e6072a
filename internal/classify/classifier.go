// Package classify assigns NAICS codes to business records. An optional AI
// tier runs first; the keyword tier is the deterministic fallback.
package classify

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/ai"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/naics"
)

// DefaultAcceptThreshold is the AI confidence a result must exceed.
const DefaultAcceptThreshold = 70

// Fallback reasons recorded when the AI tier is skipped.
const (
	FallbackNone          = ""
	FallbackNoAI          = "ai_disabled"
	FallbackAIError       = "ai_error"
	FallbackLowConfidence = "ai_low_confidence"
	FallbackEmptyRecord   = "empty_record"
)

// Result is the outcome of classifying one record. Fallback names why the
// AI tier was not used; Err carries the cause of an error classification.
type Result struct {
	Classification model.Classification
	Fallback       string
	Err            error
}

func errorResult(err error) Result {
	return Result{Classification: model.ErrorClassification(err.Error()), Err: err}
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithAcceptThreshold sets the AI confidence cutoff.
func WithAcceptThreshold(n int) Option {
	return func(c *Classifier) { c.threshold = n }
}

// Classifier runs the AI and keyword tiers.
type Classifier struct {
	ai        ai.Classifier
	threshold int
	stats     *Stats
}

// New creates a Classifier. aiClf may be nil to use keywords only.
func New(aiClf ai.Classifier, opts ...Option) *Classifier {
	c := &Classifier{
		ai:        aiClf,
		threshold: DefaultAcceptThreshold,
		stats:     &Stats{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stats returns the classifier's counters.
func (c *Classifier) Stats() *Stats { return c.stats }

// Classify assigns a NAICS code to rec. It never returns an error and never
// panics; internal failures produce the error classification.
func (c *Classifier) Classify(ctx context.Context, rec model.Record) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = errorResult(eris.Errorf("classify: panic: %v", r))
			zap.L().Error("classify: recovered panic",
				zap.String("business", rec.Name()),
				zap.Any("panic", r),
			)
		}
		c.stats.record(res.Classification)
	}()

	fallback := FallbackNoAI
	if c.ai != nil {
		b := ai.BusinessFromRecord(rec)
		if b.Empty() {
			fallback = FallbackEmptyRecord
		} else {
			cls, reason := c.classifyAI(ctx, b)
			if cls != nil {
				annotate(cls, rec)
				return Result{Classification: *cls}
			}
			fallback = reason
		}
	}

	cls := ClassifyKeywords(rec)
	annotate(&cls, rec)
	return Result{Classification: cls, Fallback: fallback}
}

// classifyAI returns nil and a fallback reason when the AI answer is not
// usable.
func (c *Classifier) classifyAI(ctx context.Context, b ai.Business) (*model.Classification, string) {
	out, err := c.ai.ClassifyIndustry(ctx, b)
	if err != nil {
		zap.L().Debug("classify: ai tier failed",
			zap.String("business", b.Name),
			zap.Error(err),
		)
		return nil, FallbackAIError
	}
	if out == nil || !out.Success || out.Confidence <= c.threshold {
		return nil, FallbackLowConfidence
	}

	code := naics.Extract(out.NAICSCode)
	desc := out.Description
	if t := naics.Title(code); t != "" {
		desc = t
	}
	if desc == "" {
		desc = "Unknown"
	}
	reasoning := out.Reasoning
	if out.Model != "" {
		reasoning = fmt.Sprintf("%s (model: %s)", reasoning, out.Model)
	}
	return &model.Classification{
		NAICSCode:   code,
		Description: desc,
		Confidence:  min(out.Confidence, 100),
		Reasoning:   reasoning,
		Method:      model.MethodAI,
	}, FallbackNone
}
