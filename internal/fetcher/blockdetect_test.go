package fetcher

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockType
	}{
		{"normal page", 200, nil, "<html><body>Welcome to Acme</body></html>", BlockNone},
		{"cloudflare header", 403, http.Header{"Cf-Ray": {"1"}}, "", BlockCloudflare},
		{"cloudflare server", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"challenge body", 200, nil, "Checking your browser before accessing", BlockCloudflare},
		{"recaptcha", 200, nil, `<div class="g-recaptcha"></div>`, BlockCaptcha},
		{"js shell", 200, nil, "<noscript>Please enable JavaScript to continue</noscript>", BlockJSShell},
		{"access denied", 200, nil, "<h1>Access Denied</h1>", BlockDenied},
		{"long page mentioning access denied", 200, nil, strings.Repeat("x", 3000) + "access denied", BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.header
			if h == nil {
				h = http.Header{}
			}
			blocked, kind := DetectBlock(&http.Response{StatusCode: tt.status, Header: h}, []byte(tt.body))
			assert.Equal(t, tt.want != BlockNone, blocked)
			assert.Equal(t, tt.want, kind)
		})
	}

	blocked, _ := DetectBlock(nil, nil)
	assert.False(t, blocked)
}
