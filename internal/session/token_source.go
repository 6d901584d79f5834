package session

import (
	"context"
	"time"

	"github.com/brizzai/todoctl/internal/auth/constants"
	"github.com/brizzai/todoctl/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// expiryDelta refreshes a little before the token actually expires
const expiryDelta = 10 * time.Second

type tokenSource struct {
	ctx context.Context
	c   *Coordinator
}

// TokenSource exposes the current user's access token as an oauth2 token.
// An access token that is about to expire is refreshed first.
func (c *Coordinator) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, c: c}
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.current()
	if err != nil {
		return nil, err
	}

	if !tok.Expiry.IsZero() && time.Until(tok.Expiry) < expiryDelta {
		logger.Debug("Access token expired, refreshing", zap.Time("expiry", tok.Expiry))
		if !s.c.RefreshToken(s.ctx) {
			return nil, ErrNotAuthenticated
		}
		return s.current()
	}
	return tok, nil
}

func (s *tokenSource) current() (*oauth2.Token, error) {
	user, ok := s.c.store.Current()
	if !ok || !user.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken:  user.AccessToken,
		TokenType:    constants.TokenType,
		RefreshToken: user.RefreshToken,
		Expiry:       TokenExpiry(user.AccessToken),
	}, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it. Tokens that
// are not JWTs, or carry no exp, have no expiry.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
