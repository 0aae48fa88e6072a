package notion

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *MockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

// roundTripper answers every request with one canned response.
type roundTripper struct {
	status int
	body   string
	calls  atomic.Int32
}

func (rt *roundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	rt.calls.Add(1)
	return &http.Response{
		StatusCode: rt.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(rt.body)),
	}, nil
}

func clientWith(rt *roundTripper, o Options) Client {
	o.HTTPClient = &http.Client{Transport: rt}
	return NewClient("secret_test", o)
}

func TestNewClient_RateLimit(t *testing.T) {
	c := NewClient("secret_test", Options{RateLimit: 3}).(*apiClient)
	require.NotNil(t, c.limiter)
	assert.InDelta(t, 3.0, float64(c.limiter.Limit()), 1e-9)
	assert.Equal(t, 1, c.limiter.Burst())

	c = NewClient("secret_test", Options{}).(*apiClient)
	assert.Nil(t, c.limiter)
	assert.NoError(t, c.throttle(context.Background()))
}

func TestQueryDatabase_NotShared(t *testing.T) {
	rt := &roundTripper{
		status: http.StatusNotFound,
		body:   `{"object":"error","status":404,"code":"object_not_found","message":"Could not find database"}`,
	}
	_, err := clientWith(rt, Options{}).QueryDatabase(context.Background(), "lead-db", &notionapi.DatabaseQueryRequest{})
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
	assert.ErrorContains(t, err, "query lead database lead-db")
}

func TestCreatePage_APIError(t *testing.T) {
	rt := &roundTripper{
		status: http.StatusBadRequest,
		body:   `{"object":"error","status":400,"code":"validation_error","message":"Phone is not a property that exists."}`,
	}
	_, err := clientWith(rt, Options{}).CreatePage(context.Background(), &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: "lead-db"},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDatabaseNotFound)
	assert.ErrorContains(t, err, "create page in lead-db")
	assert.ErrorContains(t, err, "Phone is not a property")
}

func TestCreatePage_RateLimitedGivesUp(t *testing.T) {
	rt := &roundTripper{status: http.StatusTooManyRequests, body: `{}`}
	_, err := clientWith(rt, Options{Retries: 1}).CreatePage(context.Background(), &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: "lead-db"},
	})

	var limited *notionapi.RateLimitedError
	assert.ErrorAs(t, err, &limited)
	assert.Equal(t, int32(1), rt.calls.Load())
}

func TestThrottle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rt := &roundTripper{status: http.StatusOK, body: `{"object":"list","results":[]}`}
	_, err := clientWith(rt, Options{RateLimit: 0.001}).QueryDatabase(ctx, "lead-db", &notionapi.DatabaseQueryRequest{})
	assert.ErrorContains(t, err, "notion: rate limit")
	assert.Zero(t, rt.calls.Load())
}
