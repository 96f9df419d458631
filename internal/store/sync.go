package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pavelanni/realexam/internal/model"
)

// GetImportedFileHash returns the hash recorded for path, or "" if it was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the hash of an imported file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?, imported_at = ?`,
		path, hash, time.Now(), hash, time.Now(),
	)
	return err
}

// SyncFile loads a per-year question-bank file into the store. The year's
// questions are replaced in one transaction. Files whose content hash matches
// the last import are skipped; the returned bool reports whether the file
// was loaded.
func (s *Store) SyncFile(path string, year int) (bool, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, 0, fmt.Errorf("read %s: %w", path, err)
	}

	hash := sha256sum(data)
	storedHash, err := s.GetImportedFileHash(path)
	if err != nil {
		return false, 0, fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash {
		slog.Info("question bank unchanged, skipping", "path", path)
		return false, 0, nil
	}

	var questions []model.BankQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return false, 0, fmt.Errorf("parse %s: %w", path, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bank_questions WHERE year = ?`, year); err != nil {
		return false, 0, fmt.Errorf("clear year %d: %w", year, err)
	}
	for _, q := range questions {
		if err := upsertQuestion(tx, year, q); err != nil {
			return false, 0, fmt.Errorf("insert question from %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, 0, err
	}

	if err := s.SetImportedFileHash(path, hash); err != nil {
		return true, len(questions), fmt.Errorf("record import for %s: %w", path, err)
	}
	slog.Info("synced question bank", "path", path, "year", year, "count", len(questions))
	return true, len(questions), nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
