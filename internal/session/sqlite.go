package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/donezo-dev/donezo/internal/models"
)

const sqliteFileName = "donezo.sqlite"

// SQLitePath returns the database location inside the config directory
func SQLitePath(dir string) string {
	return filepath.Join(dir, sqliteFileName)
}

// SQLiteStore keeps the entries as rows of a local key/value table.
// Both rows are written in one transaction.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLiteStore opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, fmt.Errorf("failed to apply pragma: %w", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(sess models.Session) error {
	token, identity, err := encode(sess)
	if err != nil {
		return persistErr("sqlite", "save", err)
	}

	entries := []models.StorageEntry{
		{Key: IdentityKey, Value: identity},
		{Key: TokenKey, Value: token},
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entries).Error
	})
	if err != nil {
		return persistErr("sqlite", "save", err)
	}
	return nil
}

func (s *SQLiteStore) Load() (*models.Session, bool) {
	var entries []models.StorageEntry
	if err := s.db.Where("entry_key IN ?", []string{TokenKey, IdentityKey}).Find(&entries).Error; err != nil {
		return nil, false
	}

	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		values[entry.Key] = entry.Value
	}

	return decode(values[TokenKey], values[IdentityKey])
}

func (s *SQLiteStore) Clear() error {
	err := s.db.Where("entry_key IN ?", []string{TokenKey, IdentityKey}).Delete(&models.StorageEntry{}).Error
	if err != nil {
		return persistErr("sqlite", "clear", err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
