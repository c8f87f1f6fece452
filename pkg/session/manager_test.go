package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ada = User{ID: 1, Username: "ada", Email: "ada@x.com"}

func newTestManager(t *testing.T) (*Manager, *FileStore, *MemStore) {
	t.Helper()
	durable, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ephemeral := NewMemStore()
	return NewManager(durable, ephemeral), durable, ephemeral
}

func TestManagerStartsLoading(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.True(t, m.Loading())
	_, ok := m.User()
	assert.False(t, ok)

	require.NoError(t, m.Hydrate())
	assert.False(t, m.Loading())
	_, ok = m.User()
	assert.False(t, ok)
}

func TestLoginRememberSurvivesReload(t *testing.T) {
	m, durable, _ := newTestManager(t)
	require.NoError(t, m.Hydrate())
	require.NoError(t, m.Login(ada, "tok-123", true))

	// A new manager over the same durable backend simulates a reload.
	reloaded := NewManager(durable, NewMemStore())
	require.NoError(t, reloaded.Hydrate())

	user, ok := reloaded.User()
	require.True(t, ok)
	assert.Equal(t, ada, user)
	assert.Equal(t, "tok-123", reloaded.Token())
}

func TestLoginWithoutRememberDoesNotSurviveReload(t *testing.T) {
	m, durable, _ := newTestManager(t)
	require.NoError(t, m.Hydrate())
	require.NoError(t, m.Login(ada, "tok-123", false))

	// In-memory session is live...
	user, ok := m.User()
	require.True(t, ok)
	assert.Equal(t, ada, user)

	// ...but nothing was written durably, so a reload resurrects nothing.
	reloaded := NewManager(durable, NewMemStore())
	require.NoError(t, reloaded.Hydrate())
	_, ok = reloaded.User()
	assert.False(t, ok)
	assert.Empty(t, reloaded.Token())
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	m, _, _ := newTestManager(t)
	require.NoError(t, m.Hydrate())
	assert.ErrorIs(t, m.Login(ada, "", true), ErrEmptyToken)
	_, ok := m.User()
	assert.False(t, ok)
}

func TestLogoutScrubsBothBackends(t *testing.T) {
	for _, remember := range []bool{true, false} {
		m, durable, ephemeral := newTestManager(t)
		require.NoError(t, m.Hydrate())
		require.NoError(t, m.Login(ada, "tok-123", remember))

		require.NoError(t, m.Logout())

		_, ok := m.User()
		assert.False(t, ok)
		assert.Empty(t, m.Token())
		for _, key := range []string{KeyUser, KeyToken} {
			_, ok := durable.Get(key)
			assert.False(t, ok, "durable still holds %s (remember=%v)", key, remember)
			_, ok = ephemeral.Get(key)
			assert.False(t, ok, "ephemeral still holds %s (remember=%v)", key, remember)
		}
	}
}

func TestHydrateScrubsHalfSession(t *testing.T) {
	m, durable, _ := newTestManager(t)
	// A token without a profile is a half-populated session and must be
	// treated as logged out.
	require.NoError(t, durable.Set(KeyToken, "orphan-token"))

	require.NoError(t, m.Hydrate())
	_, ok := m.User()
	assert.False(t, ok)
	assert.Empty(t, m.Token())
	_, ok = durable.Get(KeyToken)
	assert.False(t, ok, "orphan token should have been scrubbed")
}

func TestHydrateScrubsCorruptProfile(t *testing.T) {
	m, durable, _ := newTestManager(t)
	require.NoError(t, durable.Set(KeyUser, "{not json"))
	require.NoError(t, durable.Set(KeyToken, "tok-123"))

	require.NoError(t, m.Hydrate())
	_, ok := m.User()
	assert.False(t, ok)
	_, ok = durable.Get(KeyUser)
	assert.False(t, ok)
}

func TestHydrateRunsOnce(t *testing.T) {
	m, durable, _ := newTestManager(t)
	require.NoError(t, m.Hydrate())

	// Keys appearing after the first hydrate must not resurrect a session.
	require.NoError(t, durable.Set(KeyUser, `{"id":1,"username":"ada","email":"ada@x.com"}`))
	require.NoError(t, durable.Set(KeyToken, "tok-late"))
	require.NoError(t, m.Hydrate())
	_, ok := m.User()
	assert.False(t, ok)
}

func TestSetUserRepersistsIntoActiveBackend(t *testing.T) {
	tests := []struct {
		name     string
		remember bool
	}{
		{name: "durable session", remember: true},
		{name: "ephemeral session", remember: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, durable, ephemeral := newTestManager(t)
			require.NoError(t, m.Hydrate())
			require.NoError(t, m.Login(ada, "tok-123", test.remember))

			renamed := User{ID: 1, Username: "countess", Email: "ada@x.com"}
			require.NoError(t, m.SetUser(renamed))

			user, ok := m.User()
			require.True(t, ok)
			assert.Equal(t, "countess", user.Username)
			assert.Equal(t, "tok-123", m.Token(), "token untouched")

			active, inactive := Store(durable), Store(ephemeral)
			if !test.remember {
				active, inactive = inactive, active
			}
			raw, ok := active.Get(KeyUser)
			require.True(t, ok)
			assert.Contains(t, raw, "countess")
			_, ok = inactive.Get(KeyUser)
			assert.False(t, ok)
		})
	}
}

func TestResolveTokenFallback(t *testing.T) {
	m, durable, ephemeral := newTestManager(t)
	require.NoError(t, m.Hydrate())

	assert.Empty(t, m.ResolveToken(), "logged out resolves to empty")

	require.NoError(t, ephemeral.Set(KeyToken, "ephemeral-tok"))
	assert.Equal(t, "ephemeral-tok", m.ResolveToken())

	// Durable wins over ephemeral.
	require.NoError(t, durable.Set(KeyToken, "durable-tok"))
	assert.Equal(t, "durable-tok", m.ResolveToken())

	// The in-memory token wins over both stores.
	require.NoError(t, m.Login(ada, "memory-tok", false))
	assert.Equal(t, "memory-tok", m.ResolveToken())
}

func TestLoginMovesSessionBetweenBackends(t *testing.T) {
	m, durable, ephemeral := newTestManager(t)
	require.NoError(t, m.Hydrate())

	require.NoError(t, m.Login(ada, "tok-1", true))
	require.NoError(t, m.Login(ada, "tok-2", false))

	// Only one backend holds the keys at a time.
	_, ok := durable.Get(KeyToken)
	assert.False(t, ok)
	token, ok := ephemeral.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "tok-2", token)
}
