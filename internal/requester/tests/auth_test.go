package tests

import (
	"net/http"
	"testing"

	"github.com/brizzai/todoctl/internal/requester"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCredentials struct {
	access  string
	refresh string
}

func (s staticCredentials) AccessToken() (string, bool) { return s.access, s.access != "" }
func (s staticCredentials) RefreshToken() (string, bool) { return s.refresh, s.refresh != "" }

func TestBearerAuthManager_ApplyAuth(t *testing.T) {
	tests := []struct {
		name        string
		credentials requester.CredentialAccessor
		want        string
	}{
		{
			name:        "No Credentials",
			credentials: nil,
			want:        "",
		},
		{
			name:        "No Token",
			credentials: staticCredentials{},
			want:        "",
		},
		{
			name:        "Bearer Token",
			credentials: staticCredentials{access: "test-token", refresh: "r"},
			want:        "Bearer test-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: make(http.Header)}
			manager := requester.NewBearerAuthManager(tt.credentials)

			require.NoError(t, manager.ApplyAuth(req))
			assert.Equal(t, tt.want, req.Header.Get("Authorization"))
		})
	}
}
