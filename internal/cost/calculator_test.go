package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		OpenAI:    map[string]ModelRate{"mini": {Input: 0.15, Output: 0.60}},
		Anthropic: map[string]ModelRate{"haiku": {Input: 0.80, Output: 4.00}},
		Gemini:    map[string]ModelRate{"flash": {Input: 0.30, Output: 2.50}},
	}
}

func TestPrice(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider string
		model    string
		usage    Usage
		want     float64
	}{
		{"openai", ProviderOpenAI, "mini", Usage{1_000_000, 100_000}, 0.15 + 0.06},
		{"anthropic", ProviderAnthropic, "haiku", Usage{500_000, 50_000}, 0.40 + 0.20},
		{"gemini", ProviderGemini, "flash", Usage{2_000_000, 0}, 0.60},
		{"local is free", ProviderLocal, "llama3.1", Usage{1_000_000, 1_000_000}, 0},
		{"unknown model", ProviderOpenAI, "gpt-9", Usage{1_000_000, 1_000_000}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Price(tt.provider, tt.model, tt.usage), 1e-9)
		})
	}
}

func TestDefaultRates_CoverDefaultModels(t *testing.T) {
	t.Parallel()
	r := DefaultRates()
	assert.Contains(t, r.OpenAI, "gpt-4o-mini")
	assert.NotEmpty(t, r.Anthropic)
	assert.NotEmpty(t, r.Gemini)
}

func TestTracker(t *testing.T) {
	t.Parallel()
	tr := NewTracker(NewCalculator(testRates()))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add(ProviderOpenAI, "mini", Usage{InputTokens: 100_000, OutputTokens: 10_000})
		}()
	}
	wg.Wait()
	tr.Add(ProviderLocal, "llama3.1", Usage{InputTokens: 500})

	assert.InDelta(t, 10*(0.015+0.006), tr.Total(), 1e-9)
	assert.InDelta(t, 0.0, tr.ByProvider()[ProviderLocal], 1e-9)
	assert.Equal(t, Usage{InputTokens: 1_000_000, OutputTokens: 100_000}, tr.Usage(ProviderOpenAI))
}
