package session

import (
	"context"

	"github.com/brizzai/todoctl/internal/config"
	"github.com/brizzai/todoctl/internal/credential"
	"go.uber.org/fx"
)

// Params are the dependencies of a Coordinator built by fx
type Params struct {
	fx.In

	API       *config.APIConfig
	Persister credential.Persister
}

// NewFromConfig builds a Coordinator against the configured API
func NewFromConfig(p Params) *Coordinator {
	return New(context.Background(), Options{
		BaseURL:   p.API.BaseURL,
		Timeout:   p.API.Timeout,
		Headers:   p.API.Headers,
		Persister: p.Persister,
	})
}

// Module provides the session coordinator
var Module = fx.Module("session",
	fx.Provide(NewFromConfig),
)
