package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyToken rejects login attempts that would create a half-populated
// session: a session's token is always a non-empty string.
var ErrEmptyToken = errors.New("session token must not be empty")

// User is the client-side profile mirrored into the session store.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Manager holds the in-memory session and keeps it in step with the store
// backends. It starts in the loading state; Hydrate resolves it. There is at
// most one active session per Manager.
type Manager struct {
	mu        sync.RWMutex
	durable   Store
	ephemeral Store

	user    *User
	token   string
	loading bool
}

// NewManager builds a manager over the durable and ephemeral backends.
// The manager reports loading until Hydrate runs; callers must treat that
// state as "unknown", never as "logged out".
func NewManager(durable, ephemeral Store) *Manager {
	return &Manager{
		durable:   durable,
		ephemeral: ephemeral,
		loading:   true,
	}
}

// Hydrate reconstructs the session from whichever backend holds it, durable
// first. It runs its logic once; later calls are no-ops. A half-populated
// persisted session (user without token or vice versa) is treated as logged
// out and scrubbed from both backends.
func (m *Manager) Hydrate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loading {
		return nil
	}
	m.loading = false

	for _, store := range []Store{m.durable, m.ephemeral} {
		rawUser, okUser := store.Get(KeyUser)
		token, okToken := store.Get(KeyToken)
		if !okUser && !okToken {
			continue
		}
		if !okUser || !okToken || token == "" {
			return m.scrubLocked()
		}
		var user User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return m.scrubLocked()
		}
		m.user = &user
		m.token = token
		return nil
	}
	return nil
}

// Login establishes the session in memory and persists it into the durable
// backend when remember is set, else into the ephemeral one. Memory and the
// backend are written together; a store failure leaves no session behind.
func (m *Manager) Login(user User, token string, remember bool) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	target, other := m.ephemeral, m.durable
	if remember {
		target, other = m.durable, m.ephemeral
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serialize user: %w", err)
	}
	if err := target.Set(KeyUser, string(rawUser)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	if err := target.Set(KeyToken, token); err != nil {
		target.Remove(KeyUser)
		return fmt.Errorf("persist token: %w", err)
	}
	// A prior session may live in the other backend; at most one backend
	// holds the keys at a time.
	other.Remove(KeyUser)
	other.Remove(KeyToken)

	m.user = &user
	m.token = token
	m.loading = false
	return nil
}

// Logout clears the in-memory session and removes the canonical keys from
// both backends so no stale session survives.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scrubLocked()
}

// SetUser replaces the profile after an update, leaving the token untouched,
// and re-persists it into whichever backend currently holds the token.
func (m *Manager) SetUser(user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &user

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serialize user: %w", err)
	}
	for _, store := range []Store{m.durable, m.ephemeral} {
		if _, ok := store.Get(KeyToken); ok {
			return store.Set(KeyUser, string(rawUser))
		}
	}
	return nil
}

// User returns the current profile, if any.
func (m *Manager) User() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// Token returns the in-memory token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Loading reports whether the session state is still unknown.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// ResolveToken is the ordered fallback every authenticated request uses:
// in-memory token, then the durable backend, then the ephemeral one. An empty
// result means unauthenticated.
func (m *Manager) ResolveToken() string {
	m.mu.RLock()
	if m.token != "" {
		token := m.token
		m.mu.RUnlock()
		return token
	}
	m.mu.RUnlock()

	for _, store := range []Store{m.durable, m.ephemeral} {
		if token, ok := store.Get(KeyToken); ok && token != "" {
			return token
		}
	}
	return ""
}

func (m *Manager) scrubLocked() error {
	m.user = nil
	m.token = ""
	var firstErr error
	for _, store := range []Store{m.durable, m.ephemeral} {
		for _, key := range []string{KeyUser, KeyToken} {
			if err := store.Remove(key); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
