// Package cost prices model token usage and keeps a running total per
// provider for a run.
package cost

import (
	"sync"

	"go.uber.org/zap"
)

// Provider names used as rate table keys.
const (
	ProviderLocal     = "local"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Rates holds per-provider model pricing.
type Rates struct {
	OpenAI    map[string]ModelRate `yaml:"openai" mapstructure:"openai"`
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    map[string]ModelRate `yaml:"gemini" mapstructure:"gemini"`
}

// ModelRate is USD per million tokens.
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Usage is the token count of one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Calculator prices token usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

func (c *Calculator) table(provider string) map[string]ModelRate {
	switch provider {
	case ProviderOpenAI:
		return c.rates.OpenAI
	case ProviderAnthropic:
		return c.rates.Anthropic
	case ProviderGemini:
		return c.rates.Gemini
	}
	return nil
}

// Price returns the USD cost of u. Local models and unknown models are free.
func (c *Calculator) Price(provider, model string, u Usage) float64 {
	rate, ok := c.table(provider)[model]
	if !ok {
		return 0
	}
	return float64(u.InputTokens)/1e6*rate.Input + float64(u.OutputTokens)/1e6*rate.Output
}

// DefaultRates returns list prices for the default cloud models.
func DefaultRates() Rates {
	return Rates{
		OpenAI: map[string]ModelRate{
			"gpt-4o-mini": {Input: 0.15, Output: 0.60},
			"gpt-4o":      {Input: 2.50, Output: 10.00},
		},
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
		Gemini: map[string]ModelRate{
			"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
			"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},
		},
	}
}

// Tracker accumulates spend per provider. Safe for concurrent use.
type Tracker struct {
	calc *Calculator

	mu    sync.Mutex
	spend map[string]float64
	usage map[string]Usage
}

// NewTracker creates a Tracker pricing with calc.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{calc: calc, spend: map[string]float64{}, usage: map[string]Usage{}}
}

// Add records one call and returns its cost.
func (t *Tracker) Add(provider, model string, u Usage) float64 {
	usd := t.calc.Price(provider, model, u)

	t.mu.Lock()
	t.spend[provider] += usd
	acc := t.usage[provider]
	acc.InputTokens += u.InputTokens
	acc.OutputTokens += u.OutputTokens
	t.usage[provider] = acc
	t.mu.Unlock()

	zap.L().Debug("cost: llm call",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Float64("estimated_cost_usd", usd),
	)
	return usd
}

// Total returns the summed spend across providers.
func (t *Tracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum float64
	for _, v := range t.spend {
		sum += v
	}
	return sum
}

// ByProvider returns a copy of spend per provider.
func (t *Tracker) ByProvider() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.spend))
	for k, v := range t.spend {
		out[k] = v
	}
	return out
}

// Usage returns the accumulated tokens for provider.
func (t *Tracker) Usage(provider string) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage[provider]
}
