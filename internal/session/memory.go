package session

import (
	"sync"

	"github.com/donezo-dev/donezo/internal/models"
)

// MemoryStore keeps the entries in process memory only
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Save(s models.Session) error {
	token, identity, err := encode(s)
	if err != nil {
		return persistErr("memory", "save", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[IdentityKey] = identity
	m.entries[TokenKey] = token
	return nil
}

func (m *MemoryStore) Load() (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.entries[TokenKey], m.entries[IdentityKey])
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, TokenKey)
	delete(m.entries, IdentityKey)
	return nil
}

// Set writes a raw entry, bypassing validation
func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// Get returns a raw entry
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}
