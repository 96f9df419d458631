package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pavelanni/realexam/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuestion(id string, typ model.QuestionType, subject string) model.BankQuestion {
	q := model.BankQuestion{
		ID:              id,
		Type:            typ,
		Subject:         subject,
		Difficulty:      "intermediate",
		Source:          "real-exam",
		KnowledgePoints: []string{"calc-1-3"},
		Question:        "question " + id,
	}
	if typ == model.TypeChoice {
		opts := []string{"A. 1", "B. 2", "C. 3", "D. 4"}
		ans := "A"
		q.Options, q.Answer = &opts, &ans
	}
	return q
}

func insertTestQuestion(t *testing.T, s *Store, year int, id string, typ model.QuestionType, subject string) {
	t.Helper()
	if err := s.UpsertQuestion(year, testQuestion(id, typ, subject)); err != nil {
		t.Fatalf("insertTestQuestion: %v", err)
	}
}

func TestQuestionCRUD(t *testing.T) {
	s := newTestStore(t)

	// Empty DB should return zero count and empty list.
	count, err := s.QuestionCount()
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 questions, got %d", count)
	}
	list, err := s.ListQuestions(Filter{})
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	insertTestQuestion(t, s, 2024, "real-exam-2024-2024-c-1", model.TypeChoice, "calculus")
	q, err := s.GetQuestion("real-exam-2024-2024-c-1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Type != model.TypeChoice || q.Options == nil || len(*q.Options) != 4 {
		t.Errorf("unexpected question %+v", q)
	}

	// Not found.
	if _, err := s.GetQuestion("nope"); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	// Upsert replaces.
	updated := testQuestion("real-exam-2024-2024-c-1", model.TypeChoice, "linear")
	if err := s.UpsertQuestion(2024, updated); err != nil {
		t.Fatalf("UpsertQuestion: %v", err)
	}
	q, _ = s.GetQuestion("real-exam-2024-2024-c-1")
	if q.Subject != "linear" {
		t.Errorf("expected subject linear after upsert, got %q", q.Subject)
	}
	count, _ = s.QuestionCount()
	if count != 1 {
		t.Errorf("expected 1 question after upsert, got %d", count)
	}
}

func TestListQuestionsFilter(t *testing.T) {
	s := newTestStore(t)
	insertTestQuestion(t, s, 2024, "a", model.TypeChoice, "calculus")
	insertTestQuestion(t, s, 2024, "b", model.TypeSolve, "linear")
	insertTestQuestion(t, s, 2023, "c", model.TypeSolve, "calculus")

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all ordered by year", Filter{}, []string{"c", "a", "b"}},
		{"year", Filter{Year: 2024}, []string{"a", "b"}},
		{"type", Filter{Type: model.TypeSolve}, []string{"c", "b"}},
		{"subject and year", Filter{Year: 2023, Subject: "calculus"}, []string{"c"}},
		{"no match", Filter{Year: 1999}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListQuestions(tt.filter)
			if err != nil {
				t.Fatalf("ListQuestions: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d questions, want %d", len(got), len(tt.want))
			}
			for i, q := range got {
				if q.ID != tt.want[i] {
					t.Errorf("question %d = %s, want %s", i, q.ID, tt.want[i])
				}
			}
		})
	}
}

func TestCountByTypeAndYears(t *testing.T) {
	s := newTestStore(t)
	insertTestQuestion(t, s, 2024, "a", model.TypeChoice, "calculus")
	insertTestQuestion(t, s, 2022, "b", model.TypeSolve, "linear")
	insertTestQuestion(t, s, 2024, "c", model.TypeSolve, "calculus")

	counts, err := s.CountByType()
	if err != nil {
		t.Fatalf("CountByType: %v", err)
	}
	if counts[model.TypeChoice] != 1 || counts[model.TypeSolve] != 2 || counts[model.TypeBlank] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}

	years, err := s.Years()
	if err != nil {
		t.Fatalf("Years: %v", err)
	}
	if len(years) != 2 || years[0] != 2022 || years[1] != 2024 {
		t.Errorf("expected [2022 2024], got %v", years)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	if err != nil || v != "" {
		t.Errorf("GetMetadata missing = %q, %v", v, err)
	}
	if err := s.SetMetadata("k", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMetadata("k", "2"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetMetadata("k"); v != "2" {
		t.Errorf("expected 2, got %q", v)
	}

	last, err := s.LastSync()
	if err != nil || !last.IsZero() {
		t.Errorf("LastSync before any sync = %v, %v", last, err)
	}
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.SetLastSync(when); err != nil {
		t.Fatal(err)
	}
	if last, _ := s.LastSync(); !last.Equal(when) {
		t.Errorf("LastSync = %v, want %v", last, when)
	}
}

func TestExportBank(t *testing.T) {
	s := newTestStore(t)
	insertTestQuestion(t, s, 2024, "a", model.TypeChoice, "calculus")

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	bank, err := s.ExportBank(now)
	if err != nil {
		t.Fatalf("ExportBank: %v", err)
	}
	if len(bank.Questions) != 1 || bank.Favorites == nil || bank.LastUpdated != "2026-05-01T00:00:00Z" {
		t.Errorf("unexpected bank %+v", bank)
	}

	synced := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if err := s.SetLastSync(synced); err != nil {
		t.Fatal(err)
	}
	bank, _ = s.ExportBank(now)
	if bank.LastUpdated != "2026-04-01T00:00:00Z" {
		t.Errorf("lastUpdated = %s, want the sync time", bank.LastUpdated)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	// Missing file returns empty string.
	hash, err := s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	// Update existing.
	if err := s.SetImportedFileHash("/some/path.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func writeBank(t *testing.T, path string, qs []model.BankQuestion) {
	t.Helper()
	data, err := json.Marshal(qs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSyncFile(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(t.TempDir(), "real-exam-2024.question-bank.json")
	writeBank(t, path, []model.BankQuestion{
		testQuestion("a", model.TypeChoice, "calculus"),
		testQuestion("b", model.TypeSolve, "calculus"),
	})

	loaded, n, err := s.SyncFile(path, 2024)
	if err != nil || !loaded || n != 2 {
		t.Fatalf("SyncFile = %v, %d, %v", loaded, n, err)
	}

	// Unchanged file is skipped.
	loaded, _, err = s.SyncFile(path, 2024)
	if err != nil || loaded {
		t.Errorf("second SyncFile = %v, %v, want skipped", loaded, err)
	}

	// Changed file replaces the year's questions.
	writeBank(t, path, []model.BankQuestion{testQuestion("c", model.TypeBlank, "linear")})
	loaded, n, err = s.SyncFile(path, 2024)
	if err != nil || !loaded || n != 1 {
		t.Fatalf("third SyncFile = %v, %d, %v", loaded, n, err)
	}
	list, _ := s.ListQuestions(Filter{Year: 2024})
	if len(list) != 1 || list[0].ID != "c" {
		t.Errorf("expected only question c, got %+v", list)
	}

	// Malformed file leaves the store untouched.
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SyncFile(path, 2024); err == nil {
		t.Error("expected parse error")
	}
	if count, _ := s.QuestionCount(); count != 1 {
		t.Errorf("expected 1 question after failed sync, got %d", count)
	}
}
