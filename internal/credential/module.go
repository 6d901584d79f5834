package credential

import (
	"fmt"

	"github.com/brizzai/todoctl/internal/config"
	"go.uber.org/fx"
)

// NewVaultFromConfig builds a file-backed vault. The configured encryption
// key wins; otherwise a key file is generated beside the store.
func NewVaultFromConfig(cfg *config.StoreConfig) (*Vault, error) {
	storage, err := NewFileStorage(cfg.Dir)
	if err != nil {
		return nil, err
	}

	key := []byte(cfg.EncryptionKey)
	if len(key) == 0 {
		key, err = LoadOrCreateKey(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load credential key: %w", err)
		}
	}

	cipher, err := NewCipher(key, cfg.KeyID)
	if err != nil {
		return nil, err
	}
	return NewVault(storage, cipher), nil
}

// Module provides the credential vault
var Module = fx.Module("credential",
	fx.Provide(
		fx.Annotate(
			NewVaultFromConfig,
			fx.As(new(Persister)),
		),
	),
)
