// Package session ties the credential store and the authenticated requester
// together and publishes the resulting state to observers.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/brizzai/todoctl/internal/credential"
	"github.com/brizzai/todoctl/internal/logger"
	"github.com/brizzai/todoctl/internal/observable"
	"github.com/brizzai/todoctl/internal/requester"
	"go.uber.org/zap"
)

const (
	msgRegistrationFailed = "Registration failed"
	msgLoginFailed        = "Login failed"
	msgListFailed         = "Unable to get list"
	msgSaveFailed         = "Save failed"
	msgDeleteFailed       = "Delete failed"
)

// ErrNotAuthenticated is returned when an operation needs a current user
var ErrNotAuthenticated = errors.New("not authenticated")

// Coordinator owns the credential store and the requester. Their callbacks
// reach it through a delegate injected at construction. It is safe for
// concurrent use.
type Coordinator struct {
	store     *credential.Store
	requester *requester.HTTPRequester

	authenticated *observable.Value[bool]
	loading       *observable.Value[bool]
	lastError     *observable.Value[*requester.NetworkError]
}

// Options configures a Coordinator
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Headers    map[string]string
	HTTPClient *http.Client
	Persister  credential.Persister
}

// New creates a Coordinator and rehydrates the credential store. The
// authenticated state reflects the restored current user.
func New(ctx context.Context, opts Options) *Coordinator {
	c := &Coordinator{
		authenticated: observable.New(false),
		loading:       observable.New(false),
		lastError:     observable.NewEmpty[*requester.NetworkError](),
	}

	c.requester = requester.NewHTTPRequester(requester.HTTPRequesterParams{
		BaseURL:    opts.BaseURL,
		Timeout:    opts.Timeout,
		Headers:    opts.Headers,
		Delegate:   delegate{c},
		HTTPClient: opts.HTTPClient,
	})
	c.store = credential.NewStore(ctx, opts.Persister, delegate{c})
	return c
}

// IsAuthenticated is true while the current user holds an access token
func (c *Coordinator) IsAuthenticated() *observable.Value[bool] {
	return c.authenticated
}

// IsLoading is true while at least one request is in flight. Subscribers
// run while the requester's in-flight counter is locked and must not call
// back into the Coordinator synchronously.
func (c *Coordinator) IsLoading() *observable.Value[bool] {
	return c.loading
}

// LastError holds the most recent failure, absent until the first one
func (c *Coordinator) LastError() *observable.Value[*requester.NetworkError] {
	return c.lastError
}

// State returns the current authentication state
func (c *Coordinator) State() State {
	if c.authenticated.Get() {
		return Authenticated
	}
	return Anonymous
}

// CurrentUser returns the current credential
func (c *Coordinator) CurrentUser() (credential.Credential, bool) {
	return c.store.Current()
}

// Users returns every remembered credential
func (c *Coordinator) Users() []credential.Credential {
	return c.store.Users()
}

// AccessToken returns the current user's access token
func (c *Coordinator) AccessToken() (string, bool) {
	current, ok := c.store.Current()
	if !ok || current.AccessToken == "" {
		return "", false
	}
	return current.AccessToken, true
}

// DisplayName returns the current user's name, or "" when anonymous
func (c *Coordinator) DisplayName() string {
	current, ok := c.store.Current()
	if !ok {
		return ""
	}
	return current.DisplayName()
}

// Register creates the account, remembers the returned identity as current
// and logs in with the same credentials.
func (c *Coordinator) Register(ctx context.Context, reg requester.Registration) error {
	profile, err := c.requester.Register(ctx, reg)
	if err != nil {
		return c.fail(msgRegistrationFailed, err)
	}

	c.store.SetCurrent(ctx, &credential.Credential{
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	})
	logger.Info("Registered user", zap.String("email", profile.Email))

	if err := c.Login(ctx, reg.Email, reg.Password); err != nil {
		return c.fail(msgRegistrationFailed, err)
	}
	return nil
}

// Login obtains a token pair for email and makes that user current. A user
// without a local record gets a new one.
func (c *Coordinator) Login(ctx context.Context, email, password string) error {
	pair, err := c.requester.Login(ctx, email, password)
	if err != nil {
		return c.fail(msgLoginFailed, err)
	}

	user, ok := c.store.Get(email)
	if !ok {
		logger.Debug("No local record for user, creating one", zap.String("email", email))
		user = credential.Credential{Email: email}
	}
	user = user.WithTokens(pair.Access, pair.Refresh)
	c.store.SetCurrent(ctx, &user)

	logger.Info("Logged in", zap.String("email", email), logger.Fingerprint(pair.Access))
	return nil
}

// Logout forgets the current user locally. The server is not contacted and
// the user's record is kept.
func (c *Coordinator) Logout() {
	c.store.SetCurrent(context.Background(), nil)
	logger.Info("Logged out")
}

// RefreshToken refreshes the current user's token pair. It returns false
// when there is no current user or the refresh did not produce a token.
func (c *Coordinator) RefreshToken(ctx context.Context) bool {
	if _, ok := c.store.Current(); !ok {
		return false
	}
	pair, err := c.requester.RefreshToken(ctx)
	return err == nil && pair != nil
}

// ListTodos returns the current user's todos
func (c *Coordinator) ListTodos(ctx context.Context) ([]requester.Todo, error) {
	todos, err := c.requester.ListTodos(ctx)
	if err != nil {
		return nil, c.fail(msgListFailed, err)
	}
	return todos, nil
}

// SaveTodo creates or updates todo
func (c *Coordinator) SaveTodo(ctx context.Context, todo requester.Todo) error {
	if err := c.requester.SaveTodo(ctx, todo); err != nil {
		return c.fail(msgSaveFailed, err)
	}
	return nil
}

// DeleteTodo deletes todo
func (c *Coordinator) DeleteTodo(ctx context.Context, todo requester.Todo) error {
	if err := c.requester.DeleteTodo(ctx, todo); err != nil {
		return c.fail(msgDeleteFailed, err)
	}
	return nil
}

// fail wraps err for the caller and publishes it as the last error
func (c *Coordinator) fail(message string, err error) *requester.NetworkError {
	netErr := requester.NewNetworkError(message, err)
	c.lastError.Set(netErr)
	return netErr
}

// forget ends a session that became unrecoverable. The user's record is
// kept without its dead tokens.
func (c *Coordinator) forget(reason string, err error) {
	if c.store.Revoke(context.Background()) {
		logger.Warn("Session ended", zap.String("reason", reason), zap.Error(err))
	}
}
