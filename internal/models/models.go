package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// ID is an identifier kept exactly as the backend encoded it.
// The API sends user and project ids either as JSON strings or numbers,
// and both forms must survive a persist/restore round trip unchanged.
type ID json.RawMessage

// StringID builds an ID encoded as a JSON string
func StringID(s string) ID {
	b, _ := json.Marshal(s)
	return ID(b)
}

// NumberID builds an ID encoded as a JSON number
func NumberID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// MarshalJSON returns the raw encoding, or null for an empty ID
func (id ID) MarshalJSON() ([]byte, error) {
	if len(id) == 0 {
		return []byte("null"), nil
	}
	return id, nil
}

// UnmarshalJSON accepts a JSON string, a JSON number or null
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = nil
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("id must be a string or number, got %s", string(trimmed))
		}
	}

	*id = append((*id)[0:0], trimmed...)
	return nil
}

// String returns the textual value without JSON quoting
func (id ID) String() string {
	if len(id) == 0 {
		return ""
	}
	if id[0] == '"' {
		var s string
		if err := json.Unmarshal(id, &s); err == nil {
			return s
		}
	}
	return string(id)
}

// MarshalYAML renders the id as plain text
func (id ID) MarshalYAML() (interface{}, error) {
	return id.String(), nil
}

// IsZero reports whether the id carries no value
func (id ID) IsZero() bool {
	return len(id) == 0
}

// Identity is the user record persisted next to the token
type Identity struct {
	ID    ID     `json:"id"`
	Email string `json:"email"`
}

// Session pairs an identity with its bearer token.
// A valid session always has a non-empty token.
type Session struct {
	Identity Identity
	Token    string
}

// Valid reports whether the session satisfies the token invariant
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// Summary holds the project counters returned by the summary endpoint.
// Every field is optional; nil means the backend did not send it.
type Summary struct {
	TotalProjects   *int `json:"totalProjects,omitempty" yaml:"totalProjects,omitempty"`
	EndedProjects   *int `json:"endedProjects,omitempty" yaml:"endedProjects,omitempty"`
	RunningProjects *int `json:"runningProjects,omitempty" yaml:"runningProjects,omitempty"`
	PendingProjects *int `json:"pendingProjects,omitempty" yaml:"pendingProjects,omitempty"`
}

// Project is a single entry of the projects endpoint
type Project struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
}

// StorageEntry is a single durable key/value row used by the sqlite session backend
type StorageEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName pins the table name regardless of naming strategy
func (StorageEntry) TableName() string {
	return "storage_entries"
}

// AutoMigrate creates or updates the local storage schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&StorageEntry{})
}
