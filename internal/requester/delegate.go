package requester

// CredentialAccessor gives the requester read access to the current tokens
type CredentialAccessor interface {
	// AccessToken returns the current access token, if any
	AccessToken() (string, bool)
	// RefreshToken returns the current refresh token, if any
	RefreshToken() (string, bool)
}

// SessionListener receives the outcome of refresh and revoke
type SessionListener interface {
	// OnTokenRefresh is called with the new pair, or with an error when the
	// refresh failed
	OnTokenRefresh(tokens *TokenPair, err error)
	// OnTokenRevoke is called when the session can no longer be recovered.
	// It is local only; no server call is made.
	OnTokenRevoke(err error)
}

// ActivityObserver receives request bookkeeping
type ActivityObserver interface {
	// OnPendingRequestCountChange is called every time a physical request
	// starts or ends. It is called with the requester's counter lock held
	// and must not issue requests synchronously.
	OnPendingRequestCountChange(count int)
	// OnError is called once per failed top-level call
	OnError(err error)
}

// Delegate is everything the requester calls back into
type Delegate interface {
	CredentialAccessor
	SessionListener
	ActivityObserver
}
