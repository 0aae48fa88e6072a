// Package notion pushes leads into a Notion database and reads back the
// companies already there.
package notion

import (
	"context"
	"errors"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrDatabaseNotFound is returned when the lead database does not exist or
// is not shared with the integration.
var ErrDatabaseNotFound = errors.New("notion: lead database not found or not shared with the integration")

// Client is the slice of the Notion API the lead sink needs.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// Options tunes the client. The zero value sends requests unthrottled with
// the library's default 429 retry count.
type Options struct {
	RateLimit  float64 // requests per second; Notion allows about 3
	Retries    int     // attempts on a 429 response
	HTTPClient *http.Client
}

type apiClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
}

// NewClient returns a Client authenticated with an integration token.
func NewClient(token string, o Options) Client {
	var opts []notionapi.ClientOption
	if o.Retries > 0 {
		opts = append(opts, notionapi.WithRetry(o.Retries))
	}
	if o.HTTPClient != nil {
		opts = append(opts, notionapi.WithHTTPClient(o.HTTPClient))
	}
	c := &apiClient{api: notionapi.NewClient(notionapi.Token(token), opts...)}
	if o.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.RateLimit), 1)
	}
	return c
}

func (c *apiClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrapf(classify(err), "notion: query lead database %s", dbID)
	}
	return resp, nil
}

func (c *apiClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(classify(err), "notion: create page in %s", req.Parent.DatabaseID)
	}
	return page, nil
}

func (c *apiClient) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return eris.Wrap(c.limiter.Wait(ctx), "notion: rate limit")
}

// classify maps a missing or unshared database onto ErrDatabaseNotFound.
func classify(err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Code == notionapi.ErrorCode("object_not_found")) {
		return ErrDatabaseNotFound
	}
	return err
}
