package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brizzai/todoctl/internal/auth/constants"
	"github.com/google/uuid"
)

// HTTPRequestBuilder turns a Request descriptor into an *http.Request
type HTTPRequestBuilder struct {
	baseURL string
	headers map[string]string
	authMgr AuthManager
}

// NewHTTPRequestBuilder creates a new HTTPRequestBuilder
func NewHTTPRequestBuilder(baseURL string, headers map[string]string, authMgr AuthManager) *HTTPRequestBuilder {
	return &HTTPRequestBuilder{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		authMgr: authMgr,
	}
}

// BuildRequest builds a fresh *http.Request for one physical attempt
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, req Request) (*http.Request, error) {
	if req.Method == "" {
		return nil, fmt.Errorf("request method is required")
	}

	target := b.buildURL(req)

	var body io.Reader
	if req.Method.hasBody() && req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range b.headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Accept", constants.ContentTypeJSON)
	httpReq.Header.Set(constants.RequestIDHeader, uuid.NewString())
	if req.Method.hasBody() {
		httpReq.Header.Set("Content-Type", constants.ContentTypeJSON)
	}

	if b.authMgr != nil {
		if err := b.authMgr.ApplyAuth(httpReq); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}

	return httpReq, nil
}

func (b *HTTPRequestBuilder) buildURL(req Request) string {
	target := b.baseURL + req.Path
	if req.Method.hasBody() || len(req.Query) == 0 {
		return target
	}

	parts := make([]string, 0, len(req.Query))
	for _, p := range req.Query {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + strings.Join(parts, "&")
}
