package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/realexam/internal/model"
)

// ExportBank returns every stored question in the app's complete-bank format.
// lastUpdated is the last sync time, or now if the bank was never synced.
func (s *Store) ExportBank(now time.Time) (model.CompleteBank, error) {
	questions, err := s.ListQuestions(Filter{})
	if err != nil {
		return model.CompleteBank{}, fmt.Errorf("list questions: %w", err)
	}
	updated, err := s.LastSync()
	if err != nil {
		return model.CompleteBank{}, fmt.Errorf("read last sync: %w", err)
	}
	if updated.IsZero() {
		updated = now
	}
	return model.CompleteBank{
		Questions:   questions,
		Favorites:   []string{},
		LastUpdated: updated.Format(time.RFC3339),
	}, nil
}
