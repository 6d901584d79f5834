package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brizzai/todoctl/internal/logger"
	"go.uber.org/zap"
)

// StorageKey is the fixed key holding the whole credential set.
const StorageKey = "credentials/users"

// Vault reads and writes a Set as one encrypted record.
type Vault struct {
	storage Storage
	cipher  *Cipher
}

func NewVault(storage Storage, cipher *Cipher) *Vault {
	return &Vault{storage: storage, cipher: cipher}
}

// Load returns the persisted set. Any failure, including a missing record,
// yields an empty set.
func (v *Vault) Load(ctx context.Context) Set {
	set, err := v.load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("Discarding unreadable credential store", zap.Error(err))
		}
		return Set{}
	}
	return set
}

func (v *Vault) load(ctx context.Context) (Set, error) {
	sealed, err := v.storage.Read(ctx, StorageKey)
	if err != nil {
		return Set{}, err
	}
	plaintext, err := v.cipher.Open(sealed)
	if err != nil {
		return Set{}, err
	}

	var set Set
	if err := json.Unmarshal(plaintext, &set); err != nil {
		return Set{}, fmt.Errorf("failed to decode credential set: %w", err)
	}

	// the current pointer must exist in the collection
	if set.Current != nil {
		if set.Current.Email == "" {
			set.Current = nil
		} else {
			set.Upsert(*set.Current)
		}
	}
	return set, nil
}

// Save seals and writes the set.
func (v *Vault) Save(ctx context.Context, set Set) error {
	plaintext, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode credential set: %w", err)
	}
	sealed, err := v.cipher.Seal(plaintext)
	if err != nil {
		return err
	}
	if err := v.storage.Write(ctx, StorageKey, sealed); err != nil {
		return fmt.Errorf("failed to persist credential set: %w", err)
	}
	return nil
}
