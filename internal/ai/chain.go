package ai

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Chain tries providers in order and returns the first usable answer.
// Each provider sits behind its own circuit breaker so a dead local model
// is skipped quickly, and transient errors are retried with backoff.
type Chain struct {
	providers []Provider
	retry     resilience.RetryConfig
	breakers  *resilience.Breakers
	tracker   *cost.Tracker
	stats     chainStats
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithRetry sets the per-provider retry policy.
func WithRetry(cfg resilience.RetryConfig) ChainOption {
	return func(c *Chain) { c.retry = cfg }
}

// WithBreakers sets the circuit breaker policy.
func WithBreakers(cfg resilience.CircuitBreakerConfig) ChainOption {
	return func(c *Chain) { c.breakers = resilience.NewBreakers(cfg) }
}

// WithCostTracker attributes token spend to t.
func WithCostTracker(t *cost.Tracker) ChainOption {
	return func(c *Chain) { c.tracker = t }
}

// NewChain creates a Chain over providers in priority order.
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: providers,
		retry:     resilience.DefaultRetryConfig(),
		breakers:  resilience.NewBreakers(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Providers returns provider names in priority order.
func (c *Chain) Providers() []string {
	out := make([]string, len(c.providers))
	for i, p := range c.providers {
		out[i] = p.Name()
	}
	return out
}

// ClassifyIndustry implements Classifier.
func (c *Chain) ClassifyIndustry(ctx context.Context, b Business) (*Result, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProvider
	}

	start := time.Now()
	c.stats.total.Add(1)
	log := zap.L().With(zap.String("request_id", requestID()), zap.String("business", b.Name))
	prompt := BuildPrompt(b)

	var lastErr error
	for _, p := range c.providers {
		retry := c.retry
		retry.OnRetry = resilience.LogRetry("ai", p.Name())

		comp, err := resilience.ExecuteVal(ctx, c.breakers.Get(p.Name()), func(ctx context.Context) (*Completion, error) {
			return resilience.DoVal(ctx, retry, func(ctx context.Context) (*Completion, error) {
				return p.Complete(ctx, SystemPrompt, prompt)
			})
		})
		if err != nil {
			lastErr = err
			log.Warn("ai: provider failed", zap.String("provider", p.Name()), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		elapsed := time.Since(start)
		c.stats.elapsed.Add(int64(elapsed))
		if p.Name() == cost.ProviderLocal {
			c.stats.local.Add(1)
		} else {
			c.stats.fallback.Add(1)
		}
		if c.tracker != nil {
			c.tracker.Add(p.Name(), comp.Model, comp.Usage)
		}

		res := ParseResponse(comp.Text)
		res.Model = comp.Model
		res.Source = p.Name()
		log.Debug("ai: classified",
			zap.String("provider", p.Name()),
			zap.String("model", comp.Model),
			zap.String("naics_code", res.NAICSCode),
			zap.Int("confidence", res.Confidence),
			zap.Duration("elapsed", elapsed),
		)
		return &res, nil
	}

	c.stats.errors.Add(1)
	if lastErr == nil {
		return nil, ErrNoProvider
	}
	return nil, eris.Wrapf(ErrNoProvider, "last error: %v", lastErr)
}

type chainStats struct {
	total    atomic.Int64
	local    atomic.Int64
	fallback atomic.Int64
	errors   atomic.Int64
	elapsed  atomic.Int64
}

// Stats summarizes provider usage.
type Stats struct {
	TotalRequests       int64             `json:"total_requests"`
	LocalSuccesses      int64             `json:"local_successes"`
	CloudFallbacks      int64             `json:"cloud_fallbacks"`
	Errors              int64             `json:"errors"`
	AverageResponseTime time.Duration     `json:"average_response_time"`
	LocalSuccessRate    float64           `json:"local_success_rate"`
	CloudFallbackRate   float64           `json:"cloud_fallback_rate"`
	ErrorRate           float64           `json:"error_rate"`
	Breakers            map[string]string `json:"breakers,omitempty"`
}

// Stats returns a snapshot of the chain's counters.
func (c *Chain) Stats() Stats {
	s := Stats{
		TotalRequests:  c.stats.total.Load(),
		LocalSuccesses: c.stats.local.Load(),
		CloudFallbacks: c.stats.fallback.Load(),
		Errors:         c.stats.errors.Load(),
		Breakers:       map[string]string{},
	}
	if ok := s.LocalSuccesses + s.CloudFallbacks; ok > 0 {
		s.AverageResponseTime = time.Duration(c.stats.elapsed.Load() / ok)
	}
	if s.TotalRequests > 0 {
		n := float64(s.TotalRequests)
		s.LocalSuccessRate = float64(s.LocalSuccesses) / n * 100
		s.CloudFallbackRate = float64(s.CloudFallbacks) / n * 100
		s.ErrorRate = float64(s.Errors) / n * 100
	}
	for name, st := range c.breakers.States() {
		s.Breakers[name] = st.String()
	}
	return s
}
