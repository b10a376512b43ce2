package session

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/donezo-dev/donezo/internal/models"
)

const (
	keyringService = "donezo-cli"
)

// KeyringStore persists the entries in the OS keychain/credential manager
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a store using the default service name
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

func (k *KeyringStore) Save(s models.Session) error {
	token, identity, err := encode(s)
	if err != nil {
		return persistErr("keyring", "save", err)
	}

	if err := k.delete(TokenKey); err != nil {
		return persistErr("keyring", "save", err)
	}
	if err := keyring.Set(k.service, IdentityKey, identity); err != nil {
		return persistErr("keyring", "save", fmt.Errorf("failed to save identity: %w", err))
	}
	if err := keyring.Set(k.service, TokenKey, token); err != nil {
		return persistErr("keyring", "save", fmt.Errorf("failed to save token: %w", err))
	}
	return nil
}

func (k *KeyringStore) Load() (*models.Session, bool) {
	token, err := keyring.Get(k.service, TokenKey)
	if err != nil {
		return nil, false
	}

	identity, err := keyring.Get(k.service, IdentityKey)
	if err != nil {
		return nil, false
	}

	return decode(token, identity)
}

func (k *KeyringStore) Clear() error {
	if err := k.delete(TokenKey); err != nil {
		return persistErr("keyring", "clear", err)
	}
	if err := k.delete(IdentityKey); err != nil {
		return persistErr("keyring", "clear", err)
	}
	return nil
}

func (k *KeyringStore) delete(key string) error {
	if err := keyring.Delete(k.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
