package credstore

import (
	"context"
	"sync"
)

// Memory keeps the slot in process memory. It is the default store and the
// one used by tests; nothing survives a restart.
type Memory struct {
	mu     sync.Mutex
	creds  Credentials
	filled bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save overwrites the slot.
func (m *Memory) Save(_ context.Context, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds = cloneCredentials(creds)
	m.filled = true
	return nil
}

// Load returns the slot and whether it is filled.
func (m *Memory) Load(_ context.Context) (Credentials, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.filled {
		return Credentials{}, false, nil
	}
	return cloneCredentials(m.creds), true, nil
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds = Credentials{}
	m.filled = false
	return nil
}

func cloneCredentials(creds Credentials) Credentials {
	out := Credentials{Token: creds.Token}
	if creds.User != nil {
		out.User = make([]byte, len(creds.User))
		copy(out.User, creds.User)
	}
	return out
}
