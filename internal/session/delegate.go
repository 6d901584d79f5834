package session

import (
	"context"

	"github.com/brizzai/todoctl/internal/credential"
	"github.com/brizzai/todoctl/internal/logger"
	"github.com/brizzai/todoctl/internal/requester"
	"go.uber.org/zap"
)

// delegate receives the requester and credential store callbacks on behalf
// of a Coordinator.
type delegate struct {
	c *Coordinator
}

var (
	_ requester.Delegate  = delegate{}
	_ credential.Listener = delegate{}
)

func (d delegate) AccessToken() (string, bool) {
	return d.c.AccessToken()
}

func (d delegate) RefreshToken() (string, bool) {
	current, ok := d.c.store.Current()
	if !ok || current.RefreshToken == "" {
		return "", false
	}
	return current.RefreshToken, true
}

// OnTokenRefresh stores a refreshed pair on the current user, or ends the
// session when the refresh failed.
func (d delegate) OnTokenRefresh(tokens *requester.TokenPair, err error) {
	if err != nil || tokens == nil || tokens.Access == "" {
		d.c.forget("token refresh failed", err)
		return
	}

	current, ok := d.c.store.Current()
	if !ok {
		logger.Debug("Dropping refreshed tokens, no current user")
		return
	}
	current = current.WithTokens(tokens.Access, tokens.Refresh)
	d.c.store.SetCurrent(context.Background(), &current)
}

func (d delegate) OnTokenRevoke(err error) {
	d.c.forget("token revoked", err)
}

func (d delegate) OnPendingRequestCountChange(count int) {
	d.c.loading.Set(count > 0)
}

// OnError publishes the raw failure. Business operations replace it with
// their own wrapped error right after.
func (d delegate) OnError(err error) {
	d.c.lastError.Set(&requester.NetworkError{
		Message: err.Error(),
		Details: requester.ErrorDetails(err),
		Err:     err,
	})
}

// OnCredentialChanged drives IsAuthenticated. It also runs during store
// rehydration, before the Coordinator has its store.
func (d delegate) OnCredentialChanged(current *credential.Credential) {
	authenticated := current != nil && current.Authenticated()
	if current != nil {
		logger.Debug("Current user changed",
			zap.String("email", current.Email),
			zap.Bool("authenticated", authenticated),
		)
	}
	d.c.authenticated.Set(authenticated)
}
