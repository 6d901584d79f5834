package requester

import (
	"net/http"

	"github.com/brizzai/todoctl/internal/auth/constants"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// BearerAuthManager attaches the current access token as a bearer header
type BearerAuthManager struct {
	credentials CredentialAccessor
}

// NewBearerAuthManager creates a new BearerAuthManager
func NewBearerAuthManager(credentials CredentialAccessor) *BearerAuthManager {
	return &BearerAuthManager{credentials: credentials}
}

// ApplyAuth adds the Authorization header when a token is available
func (a *BearerAuthManager) ApplyAuth(req *http.Request) error {
	if a.credentials == nil {
		return nil
	}
	token, ok := a.credentials.AccessToken()
	if !ok || token == "" {
		return nil
	}
	req.Header.Set(constants.AuthHeaderName, constants.AuthHeaderPrefix+token)
	return nil
}
