package fetcher

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRateLimit    = 2 * time.Second
	defaultMaxBodyBytes = 512 * 1024
	defaultUserAgent    = "Mozilla/5.0 (compatible; leadgen-cli/1.0)"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// RateLimit is the minimum spacing between requests across all hosts.
	RateLimit    time.Duration
	MaxBodyBytes int64
	// Retry applies to Download only. Page fetches are never retried.
	Retry resilience.RetryConfig
}

// AdaptiveLimiter wraps a rate.Limiter that backs off on 429 responses.
// OnRateLimit halves the rate (down to a quarter of the initial rate);
// OnSuccess recovers by 20% per call but never exceeds the initial rate.
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates a limiter allowing one request per interval.
func NewAdaptiveLimiter(interval time.Duration) *AdaptiveLimiter {
	r := rate.Every(interval)
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(r, 1),
		maxRate:     r,
		minRate:     r / 4,
		currentRate: r,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate by 20%, up to the initial rate.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentRate >= a.maxRate {
		return
	}
	a.currentRate = min(a.currentRate*1.2, a.maxRate)
	a.limiter.SetLimit(a.currentRate)
}

// OnRateLimit halves the rate after a 429.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentRate = max(a.currentRate*0.5, a.minRate)
	a.limiter.SetLimit(a.currentRate)
	zap.L().Warn("fetcher: reducing request rate after 429",
		zap.Float64("new_rate", float64(a.currentRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// HTTPFetcher implements Fetcher over net/http with one shared politeness
// limiter. Safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *AdaptiveLimiter
}

// NewHTTPFetcher creates an HTTPFetcher, filling unset options with defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout, Transport: transport},
		opts:    opts,
		limiter: NewAdaptiveLimiter(opts.RateLimit),
	}
}

// Limiter exposes the shared limiter.
func (f *HTTPFetcher) Limiter() *AdaptiveLimiter { return f.limiter }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		// rate.Limiter fails early when the next slot falls past the
		// deadline, before ctx itself expires.
		if _, hasDeadline := ctx.Deadline(); hasDeadline || isTimeout(err) || ctx.Err() != nil {
			return nil, &TimeoutError{URL: rawURL, Err: err}
		}
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{URL: rawURL, Err: err}
		}
		return nil, eris.Wrapf(err, "fetcher: get %s", rawURL)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		f.limiter.OnRateLimit()
	}
	return resp, nil
}

// Fetch implements Fetcher. The body is capped at MaxBodyBytes and decoded
// to UTF-8 from the declared charset.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{URL: rawURL, Err: err}
		}
		return nil, eris.Wrap(err, "fetcher: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, &BlockedError{URL: rawURL, Type: kind}
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	f.limiter.OnSuccess()

	return decodeCharset(resp.Header.Get("Content-Type"), body), nil
}

func decodeCharset(contentType string, body []byte) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	cs := strings.ToLower(params["charset"])
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		return body
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return body
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return out
}

// Download streams a listing file. Unlike Fetch the body is not capped and
// transient failures are retried.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	retry := f.opts.Retry
	retry.OnRetry = resilience.LogRetry("fetcher", rawURL)
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := f.get(ctx, rawURL)
		if err != nil {
			var te *TimeoutError
			if errors.As(err, &te) && ctx.Err() == nil {
				return nil, resilience.NewTransientError(err, 0)
			}
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, resilience.ForStatus(&HTTPError{URL: rawURL, StatusCode: resp.StatusCode}, resp.StatusCode)
		}
		return resp.Body, nil
	})
}

// DownloadToFile writes the listing at rawURL to path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	return writeFile(path, body)
}

func writeFile(path string, r io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}
