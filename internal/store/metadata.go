package store

import (
	"database/sql"
	"time"
)

const lastSyncKey = "last_sync"

// SetMetadata upserts a key-value pair in the bank_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO bank_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM bank_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetLastSync records when the bank was last synced from disk.
func (s *Store) SetLastSync(t time.Time) error {
	return s.SetMetadata(lastSyncKey, t.UTC().Format(time.RFC3339))
}

// LastSync returns the last sync time, or the zero time if the bank was never synced.
func (s *Store) LastSync() (time.Time, error) {
	v, err := s.GetMetadata(lastSyncKey)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}
