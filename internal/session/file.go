package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/donezo-dev/donezo/internal/models"
)

const (
	identityFileName = IdentityKey + ".json"
	loadAttempts     = 3
)

// FileStore keeps the two entries as files in the user config directory
// (~/.config/donezo/auth_token and ~/.config/donezo/auth_user.json).
type FileStore struct {
	dir string

	// afterTokenRead runs between the token and identity reads; tests use it
	afterTokenRead func()
}

// NewFileStore creates a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) tokenPath() string {
	return filepath.Join(f.dir, TokenKey)
}

func (f *FileStore) identityPath() string {
	return filepath.Join(f.dir, identityFileName)
}

// Save drops any stale token, then writes the identity, then the token.
// Each file is replaced atomically; Load detects a Save landing between its reads.
func (f *FileStore) Save(s models.Session) error {
	token, identity, err := encode(s)
	if err != nil {
		return persistErr("file", "save", err)
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return persistErr("file", "save", fmt.Errorf("failed to create config directory: %w", err))
	}

	if err := removeIfExists(f.tokenPath()); err != nil {
		return persistErr("file", "save", err)
	}

	if err := writeFileAtomic(f.identityPath(), []byte(identity)); err != nil {
		return persistErr("file", "save", err)
	}

	if err := writeFileAtomic(f.tokenPath(), []byte(token)); err != nil {
		return persistErr("file", "save", err)
	}

	return nil
}

// Load reads the token on both sides of the identity read and retries
// when they differ, so a Save landing between the reads is retried
// instead of returning the old token with the new identity
func (f *FileStore) Load() (*models.Session, bool) {
	for attempt := 0; attempt < loadAttempts; attempt++ {
		token, err := os.ReadFile(f.tokenPath())
		if err != nil {
			return nil, false
		}

		if f.afterTokenRead != nil {
			f.afterTokenRead()
		}

		identity, err := os.ReadFile(f.identityPath())
		if err != nil {
			return nil, false
		}

		recheck, err := os.ReadFile(f.tokenPath())
		if err != nil || !bytes.Equal(token, recheck) {
			continue
		}

		return decode(string(token), string(identity))
	}
	return nil, false
}

// Clear removes the token first so no reader ever sees a token without identity
func (f *FileStore) Clear() error {
	if err := removeIfExists(f.tokenPath()); err != nil {
		return persistErr("file", "clear", err)
	}
	if err := removeIfExists(f.identityPath()); err != nil {
		return persistErr("file", "clear", err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
