package requester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/brizzai/todoctl/internal/auth/constants"
	"github.com/brizzai/todoctl/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout is used when HTTPRequesterParams.Timeout is zero
const DefaultTimeout = 30 * time.Second

// HTTPRequester issues API requests, attaches bearer auth and recovers from
// an expired access token with a single refresh-and-retry per call.
type HTTPRequester struct {
	client   *http.Client
	builder  *HTTPRequestBuilder
	delegate Delegate

	pendingMu sync.Mutex
	pending   int

	// collapses concurrent refreshes of the same refresh token
	refreshGroup singleflight.Group
}

type HTTPRequesterParams struct {
	BaseURL    string
	Timeout    time.Duration
	Headers    map[string]string
	Delegate   Delegate
	HTTPClient *http.Client
}

// NewHTTPRequester creates a new HTTPRequester
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	delegate := params.Delegate
	if delegate == nil {
		delegate = nopDelegate{}
	}

	client := params.HTTPClient
	if client == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPRequester{
		client:   client,
		builder:  NewHTTPRequestBuilder(params.BaseURL, params.Headers, NewBearerAuthManager(delegate)),
		delegate: delegate,
	}
}

// PendingRequests returns the number of physical requests in flight
func (r *HTTPRequester) PendingRequests() int {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	return r.pending
}

// Do executes req. A 401 on a request that allows retry triggers one token
// refresh and, when it yields a token, one reissue with retry disabled.
// Failures are reported to the delegate's OnError once per call.
func (r *HTTPRequester) Do(ctx context.Context, req Request) (*Response, error) {
	done := r.track()
	defer done()

	resp, err := r.do(ctx, req)
	if err != nil {
		logger.Debug("request failed",
			zap.String("method", string(req.Method)),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		r.delegate.OnError(err)
		return nil, err
	}
	return resp, nil
}

func (r *HTTPRequester) do(ctx context.Context, req Request) (*Response, error) {
	for attempt := 0; ; attempt++ {
		// the first attempt is covered by Do's own tracking
		resp, err := r.send(ctx, req, attempt > 0)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized {
			return r.finish(resp)
		}

		if !req.RetryOnUnauthorized || attempt >= MaxAuthRetries {
			r.revokeSession(statusError(resp))
			return r.finish(resp)
		}

		tokens, refreshErr := r.RefreshToken(ctx)
		if refreshErr != nil && ctx.Err() != nil {
			// the caller gave up; the session itself is untouched
			return nil, ctx.Err()
		}
		if refreshErr == nil && tokens != nil {
			logger.Debug("retrying request after token refresh",
				zap.String("method", string(req.Method)),
				zap.String("path", req.Path),
			)
			req.RetryOnUnauthorized = false
			continue
		}

		if refreshErr == nil {
			// nothing to refresh with; the refresh path never ran
			refreshErr = ErrNoRefreshToken
			r.delegate.OnTokenRevoke(refreshErr)
		}
		return nil, &AuthExpiredError{Err: errors.Join(statusError(resp), refreshErr)}
	}
}

// RefreshToken exchanges the current refresh token for a new pair. It
// returns (nil, nil) when no refresh token is available. The delegate is
// notified of the outcome through OnTokenRefresh.
//
// Concurrent callers holding the same refresh token share one exchange. The
// exchange is detached from the callers' contexts and bounded by the client
// timeout; a caller whose context ends stops waiting with ctx.Err() while
// the exchange completes for the others.
func (r *HTTPRequester) RefreshToken(ctx context.Context) (*TokenPair, error) {
	refresh, ok := r.delegate.RefreshToken()
	if !ok || refresh == "" {
		return nil, nil
	}

	ch := r.refreshGroup.DoChan(refresh, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout())
		defer cancel()
		return r.refresh(flightCtx, refresh)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logger.Debug("joined in-flight token refresh", logger.Fingerprint(refresh))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TokenPair), nil
	case <-ctx.Done():
		logger.Debug("stopped waiting for token refresh", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

func (r *HTTPRequester) refresh(ctx context.Context, refresh string) (*TokenPair, error) {
	pair, err := r.exchangeRefreshToken(ctx, refresh)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// not a verdict on the refresh token
			logger.Debug("token refresh canceled", logger.Fingerprint(refresh))
			return nil, err
		}
		logger.Info("token refresh failed", logger.Fingerprint(refresh), zap.Error(err))
		r.delegate.OnTokenRefresh(nil, err)
		return nil, err
	}

	logger.Debug("token refreshed", logger.Fingerprint(pair.Access))
	r.delegate.OnTokenRefresh(pair, nil)
	return pair, nil
}

func (r *HTTPRequester) timeout() time.Duration {
	if r.client.Timeout > 0 {
		return r.client.Timeout
	}
	return DefaultTimeout
}

func (r *HTTPRequester) exchangeRefreshToken(ctx context.Context, refresh string) (*TokenPair, error) {
	resp, err := r.send(ctx, Request{
		Method: MethodPost,
		Path:   constants.TokenRefreshPath,
		Body:   map[string]string{"refresh": refresh},
	}, true)
	if err != nil {
		return nil, err
	}
	if resp, err = r.finish(resp); err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := resp.Decode(&pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("token refresh response has no access token")
	}
	// servers without rotation only return a new access token
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return &pair, nil
}

// revokeSession invalidates the local session, only when one exists
func (r *HTTPRequester) revokeSession(cause error) {
	if _, ok := r.delegate.AccessToken(); !ok {
		return
	}
	if _, ok := r.delegate.RefreshToken(); !ok {
		return
	}
	logger.Info("revoking session after unrecoverable 401")
	r.delegate.OnTokenRevoke(cause)
}

// send performs one physical request
func (r *HTTPRequester) send(ctx context.Context, req Request, tracked bool) (*Response, error) {
	if tracked {
		done := r.track()
		defer done()
	}

	httpReq, err := r.builder.BuildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: httpReq.Method, URL: httpReq.URL.String(), Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: httpReq.Method, URL: httpReq.URL.String(), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	logger.Debug("request completed",
		zap.String("method", httpReq.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", httpReq.Header.Get(constants.RequestIDHeader)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
		Data:       parseBody(body),
	}, nil
}

// finish turns a non-2xx response into an HTTPStatusError
func (r *HTTPRequester) finish(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, statusError(resp)
}

func statusError(resp *Response) *HTTPStatusError {
	details := resp.Data
	if m, ok := resp.Data.(map[string]any); ok {
		if d, ok := m["details"]; ok && d != nil {
			details = d
		}
	}
	return &HTTPStatusError{StatusCode: resp.StatusCode, Details: details}
}

// parseBody decodes JSON on a best-effort basis; anything else is kept as text
func parseBody(body []byte) any {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return string(body)
	}
	return data
}

// track increments the in-flight counter and returns the matching decrement.
// Notifications are delivered under the lock so observers see them in order.
func (r *HTTPRequester) track() func() {
	r.pendingMu.Lock()
	r.pending++
	r.delegate.OnPendingRequestCountChange(r.pending)
	r.pendingMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.pendingMu.Lock()
			r.pending--
			r.delegate.OnPendingRequestCountChange(r.pending)
			r.pendingMu.Unlock()
		})
	}
}

type nopDelegate struct{}

func (nopDelegate) AccessToken() (string, bool) { return "", false }
func (nopDelegate) RefreshToken() (string, bool) { return "", false }
func (nopDelegate) OnTokenRefresh(*TokenPair, error) {}
func (nopDelegate) OnTokenRevoke(error) {}
func (nopDelegate) OnPendingRequestCountChange(int) {}
func (nopDelegate) OnError(error) {}
