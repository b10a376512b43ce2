// Package session persists the authenticated identity and bearer token so a
// login survives process restarts.
//
// Every backend stores two entries under fixed names: TokenKey holds the raw
// token string and IdentityKey holds the serialized {id, email} record. Load
// only reports a session when both entries are present and well formed.
package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/donezo-dev/donezo/internal/config"
	"github.com/donezo-dev/donezo/internal/models"
)

const (
	// TokenKey names the entry holding the raw bearer token
	TokenKey = "auth_token"
	// IdentityKey names the entry holding the serialized identity
	IdentityKey = "auth_user"
)

// Store defines durable session persistence.
// Load never fails: missing, partial or malformed data reads as absent.
// Clear is idempotent.
type Store interface {
	Save(s models.Session) error
	Load() (*models.Session, bool)
	Clear() error
}

// PersistenceError reports a failed storage read or write
type PersistenceError struct {
	Backend string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(backend, op string, err error) error {
	return &PersistenceError{Backend: backend, Op: op, Err: err}
}

// Open returns the store selected by the session configuration
func Open(cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.Dir), nil
	case "keyring":
		return NewKeyringStore(), nil
	case "sqlite":
		return OpenSQLiteStore(SQLitePath(cfg.Dir))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// encode splits a session into its two persisted entries
func encode(s models.Session) (token, identity string, err error) {
	if !s.Valid() {
		return "", "", fmt.Errorf("refusing to persist a session without a token")
	}

	data, err := json.Marshal(s.Identity)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal identity: %w", err)
	}

	return s.Token, string(data), nil
}

// decode rebuilds a session from its two entries, reporting absence on any defect
func decode(token, identity string) (*models.Session, bool) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(identity) == "" {
		return nil, false
	}

	var parsed *models.Identity
	if err := json.Unmarshal([]byte(identity), &parsed); err != nil || parsed == nil {
		return nil, false
	}

	return &models.Session{Identity: *parsed, Token: token}, true
}
