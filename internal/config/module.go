package config

import (
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

// Module provides the loaded configuration and its sections
func Module(flags *pflag.FlagSet) fx.Option {
	return fx.Module("config",
		fx.Supply(flags),
		fx.Provide(
			Load,
			func(c *Config) *APIConfig { return &c.API },
			func(c *Config) *StoreConfig { return &c.Store },
			func(c *Config) *LoggingConfig { return &c.Logging },
		),
	)
}
