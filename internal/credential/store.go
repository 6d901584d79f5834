package credential

import (
	"context"
	"sync"

	"github.com/brizzai/todoctl/internal/logger"
	"go.uber.org/zap"
)

// Listener is notified whenever the current credential changes, including
// once after rehydration when a current credential was found.
type Listener interface {
	OnCredentialChanged(current *Credential)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(current *Credential)

func (f ListenerFunc) OnCredentialChanged(current *Credential) { f(current) }

// Persister is the persistence port used by Store.
type Persister interface {
	Load(ctx context.Context) Set
	Save(ctx context.Context, set Set) error
}

// Store keeps the credential set in memory and writes it through to a
// Persister after every mutation. Persistence failures are logged, never
// returned, and never roll back the in-memory change.
type Store struct {
	mu        sync.RWMutex
	set       Set
	persister Persister
	listener  Listener
}

// NewStore rehydrates the set from p and notifies l of the restored current
// credential, if any.
func NewStore(ctx context.Context, p Persister, l Listener) *Store {
	s := &Store{
		set:       p.Load(ctx),
		persister: p,
		listener:  l,
	}

	current, ok := s.Current()
	logger.Debug("Credential store rehydrated",
		zap.Int("users", len(s.set.Users)),
		zap.Bool("has_current", ok),
	)
	if ok && l != nil {
		l.OnCredentialChanged(&current)
	}
	return s
}

// Get returns the credential for email.
func (s *Store) Get(email string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Find(email)
}

// Current returns the current credential.
func (s *Store) Current() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set.Current == nil {
		return Credential{}, false
	}
	return *s.set.Current, true
}

// Users returns every known credential.
func (s *Store) Users() []Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Credential(nil), s.set.Users...)
}

// Snapshot returns a copy of the whole set.
func (s *Store) Snapshot() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Clone()
}

// SetCurrent makes c the current credential, upserting it by email. A nil c
// clears the current pointer and keeps the collection untouched.
func (s *Store) SetCurrent(ctx context.Context, c *Credential) {
	s.mu.Lock()
	if c != nil {
		cur := *c
		s.set.Upsert(cur)
		s.set.Current = &cur
	} else {
		s.set.Current = nil
	}
	snapshot := s.set.Clone()
	if err := s.persister.Save(ctx, snapshot); err != nil {
		logger.Warn("Failed to persist credential store", zap.Error(err))
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.OnCredentialChanged(snapshot.Current)
	}
}

// Revoke drops the current credential's tokens, keeping its record, and
// clears the current pointer. It reports whether there was a current
// credential.
func (s *Store) Revoke(ctx context.Context) bool {
	s.mu.Lock()
	if s.set.Current == nil {
		s.mu.Unlock()
		return false
	}
	s.set.Upsert(s.set.Current.ClearTokens())
	s.set.Current = nil
	snapshot := s.set.Clone()
	if err := s.persister.Save(ctx, snapshot); err != nil {
		logger.Warn("Failed to persist credential store", zap.Error(err))
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.OnCredentialChanged(nil)
	}
	return true
}
