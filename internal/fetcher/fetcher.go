// Package fetcher downloads web pages for the collectors and opens listing
// files from local paths, HTTP or FTP.
package fetcher

import (
	"context"
	"fmt"
)

// Fetcher retrieves a page body.
type Fetcher interface {
	// Fetch returns the body of url, truncated at the fetcher's size cap.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TimeoutError is returned when a request exceeds its deadline.
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetcher: timeout fetching %s: %v", e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPError is returned for 4xx and 5xx responses.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetcher: status %d from %s", e.StatusCode, e.URL)
}

// BlockedError is returned when a response looks like an anti-bot page.
type BlockedError struct {
	URL  string
	Type BlockType
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("fetcher: blocked (%s) at %s", e.Type, e.URL)
}
