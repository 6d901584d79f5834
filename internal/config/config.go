package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("todoctl version %s, commit %s, built at %s", version, commit, date)
}

const (
	// DefaultBaseURL is used when api.base_url is not configured
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds every physical HTTP request
	DefaultTimeout = 30 * time.Second

	// DefaultStoreDir is relative to the user's home directory
	DefaultStoreDir = ".config/todoctl"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL string            `json:"base_url" mapstructure:"base_url"`
	Timeout time.Duration     `json:"timeout" mapstructure:"timeout"`
	Headers map[string]string `json:"headers" mapstructure:"headers"`
}

type StoreConfig struct {
	// Dir holds the encrypted credential file and, when no key is
	// configured, the generated key file.
	Dir           string `mapstructure:"dir"`
	EncryptionKey string `mapstructure:"encryption_key"`
	KeyID         string `mapstructure:"key_id"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// InitFlags registers the configuration flags on the given flag set (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("api.base_url", "", "Base URL of the todo API")
	flags.Duration("api.timeout", 0, "HTTP request timeout")
	flags.String("store.dir", "", "Directory for the encrypted credential store")
	flags.String("logging.level", "", "Log level (debug|info|warn|error)")
}

// Load reads configuration from flags, TODOCTL_* environment variables and
// an optional config.yaml. A missing config file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("TODOCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, DefaultStoreDir))
	}
	v.AddConfigPath("/etc/todoctl")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("store.key_id", "todoctl")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.disable_stacktrace", true)
}

func (c *Config) normalize() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required, please adjust the config or set TODOCTL_API_BASE_URL")
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultTimeout
	}

	if c.Store.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.Store.Dir = filepath.Join(home, DefaultStoreDir)
	}
	return nil
}
