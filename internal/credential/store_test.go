package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T, storage Storage) *Vault {
	t.Helper()
	c, err := NewCipher([]byte("test key"), "test")
	require.NoError(t, err)
	return NewVault(storage, c)
}

func TestVault_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	alice := Credential{Email: "a@x.com", FirstName: "Alice", AccessToken: "A1", RefreshToken: "R1"}
	bob := Credential{Email: "b@x.com", LastName: "Builder"}
	want := Set{Users: []Credential{alice, bob}, Current: &alice}

	require.NoError(t, newTestVault(t, storage).Save(ctx, want))

	got := newTestVault(t, storage).Load(ctx)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestVault_LoadDegradesToEmpty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(s Storage)
	}{
		{name: "missing record", setup: func(Storage) {}},
		{name: "not encrypted", setup: func(s Storage) {
			_ = s.Write(ctx, StorageKey, []byte(`{"allUsers":[]}`))
		}},
		{name: "garbage", setup: func(s Storage) {
			_ = s.Write(ctx, StorageKey, []byte(envelopePrefix+"{"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			tt.setup(storage)
			assert.Equal(t, Set{}, newTestVault(t, storage).Load(ctx))
		})
	}
}

func TestVault_LoadRepairsDanglingCurrent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	vault := newTestVault(t, storage)

	current := Credential{Email: "a@x.com", AccessToken: "A1", RefreshToken: "R1"}
	require.NoError(t, vault.Save(ctx, Set{Current: &current}))

	got := vault.Load(ctx)
	require.Len(t, got.Users, 1)
	assert.Equal(t, current, got.Users[0])
}

type recordingListener struct {
	calls []*Credential
}

func (l *recordingListener) OnCredentialChanged(c *Credential) {
	l.calls = append(l.calls, c)
}

func TestStore_RevokeClearsTokens(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	var notified []*Credential
	store := NewStore(ctx, newTestVault(t, storage), ListenerFunc(func(c *Credential) {
		notified = append(notified, c)
	}))

	assert.False(t, store.Revoke(ctx), "nothing to revoke")
	assert.Empty(t, notified)

	alice := Credential{Email: "a@x.com", FirstName: "Alice", AccessToken: "A1", RefreshToken: "R1"}
	store.SetCurrent(ctx, &alice)
	require.True(t, store.Revoke(ctx))

	_, ok := store.Current()
	assert.False(t, ok)
	kept, ok := store.Get("a@x.com")
	require.True(t, ok)
	assert.Equal(t, Credential{Email: "a@x.com", FirstName: "Alice"}, kept)
	assert.False(t, kept.Authenticated())

	require.Len(t, notified, 2)
	assert.Nil(t, notified[1])

	persisted := newTestVault(t, storage).Load(ctx)
	assert.Nil(t, persisted.Current)
	require.Len(t, persisted.Users, 1)
	assert.Empty(t, persisted.Users[0].AccessToken)
	assert.Empty(t, persisted.Users[0].RefreshToken)
}

func TestStore_RehydrateNotifiesCurrent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	alice := Credential{Email: "a@x.com", AccessToken: "A1", RefreshToken: "R1"}
	require.NoError(t, newTestVault(t, storage).Save(ctx, Set{Users: []Credential{alice}, Current: &alice}))

	listener := &recordingListener{}
	store := NewStore(ctx, newTestVault(t, storage), listener)

	require.Len(t, listener.calls, 1)
	assert.Equal(t, alice, *listener.calls[0])

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "A1", current.AccessToken)
}

func TestStore_RehydrateWithoutCurrentIsSilent(t *testing.T) {
	listener := &recordingListener{}
	NewStore(context.Background(), newTestVault(t, NewMemoryStorage()), listener)
	assert.Empty(t, listener.calls)
}

func TestStore_SetCurrentUpsertsAndPersists(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	listener := &recordingListener{}
	store := NewStore(ctx, newTestVault(t, storage), listener)

	alice := Credential{Email: "a@x.com", AccessToken: "A1", RefreshToken: "R1"}
	store.SetCurrent(ctx, &alice)

	refreshed := alice.WithTokens("A2", "R2")
	store.SetCurrent(ctx, &refreshed)

	users := store.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "A2", users[0].AccessToken)

	store.SetCurrent(ctx, nil)
	_, ok := store.Current()
	assert.False(t, ok)
	_, ok = store.Get("a@x.com")
	assert.True(t, ok, "logout keeps the record")

	require.Len(t, listener.calls, 3)
	assert.Nil(t, listener.calls[2])

	persisted := newTestVault(t, storage).Load(ctx)
	assert.Nil(t, persisted.Current)
	require.Len(t, persisted.Users, 1)
	assert.Equal(t, "R2", persisted.Users[0].RefreshToken)
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) Set { return Set{} }
func (failingPersister) Save(context.Context, Set) error { return errors.New("disk full") }

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	listener := &recordingListener{}
	store := NewStore(ctx, failingPersister{}, listener)

	store.SetCurrent(ctx, &Credential{Email: "a@x.com", AccessToken: "A1", RefreshToken: "R1"})

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "A1", current.AccessToken)
	assert.Len(t, listener.calls, 1)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, newTestVault(t, NewMemoryStorage()), nil)
	store.SetCurrent(ctx, &Credential{Email: "a@x.com"})

	snap := store.Snapshot()
	snap.Current.Email = "changed"
	snap.Users[0].Email = "changed"

	current, _ := store.Current()
	assert.Equal(t, "a@x.com", current.Email)
	assert.Equal(t, "a@x.com", store.Users()[0].Email)
}

func TestCredential_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Credential{Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Ada", Credential{Email: "a@x.com", FirstName: "Ada"}.DisplayName())
	assert.Equal(t, "a@x.com", Credential{Email: "a@x.com"}.DisplayName())
}
