package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/realexam/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bank_questions (
		id TEXT PRIMARY KEY,
		year INTEGER NOT NULL,
		type TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bank_questions_year ON bank_questions(year);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bank_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Filter narrows ListQuestions. Zero values mean no filtering on that field.
type Filter struct {
	Year    int
	Type    model.QuestionType
	Subject string
}

// UpsertQuestion stores a bank question under year, replacing any with the same id.
func (s *Store) UpsertQuestion(year int, q model.BankQuestion) error {
	return upsertQuestion(s.db, year, q)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertQuestion(db execer, year int, q model.BankQuestion) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode question %s: %w", q.ID, err)
	}
	_, err = db.Exec(
		`INSERT INTO bank_questions (id, year, type, subject, question, data)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET year = ?, type = ?, subject = ?, question = ?, data = ?`,
		q.ID, year, q.Type, q.Subject, q.Question, string(data),
		year, q.Type, q.Subject, q.Question, string(data),
	)
	return err
}

// ListQuestions returns questions matching f ordered by year and id.
func (s *Store) ListQuestions(f Filter) ([]model.BankQuestion, error) {
	query := `SELECT data FROM bank_questions`
	var where []string
	var args []any
	if f.Year != 0 {
		where = append(where, `year = ?`)
		args = append(args, f.Year)
	}
	if f.Type != "" {
		where = append(where, `type = ?`)
		args = append(args, f.Type)
	}
	if f.Subject != "" {
		where = append(where, `subject = ?`)
		args = append(args, f.Subject)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY year, rowid`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	questions := []model.BankQuestion{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var q model.BankQuestion
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by id, or sql.ErrNoRows.
func (s *Store) GetQuestion(id string) (model.BankQuestion, error) {
	var q model.BankQuestion
	var data string
	if err := s.db.QueryRow(`SELECT data FROM bank_questions WHERE id = ?`, id).Scan(&data); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return q, fmt.Errorf("decode question %s: %w", id, err)
	}
	return q, nil
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bank_questions`).Scan(&count)
	return count, err
}

// CountByType returns the number of questions of each type.
func (s *Store) CountByType() (map[model.QuestionType]int, error) {
	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM bank_questions GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[model.QuestionType]int)
	for rows.Next() {
		var t model.QuestionType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// Years returns the distinct years in the bank, ascending.
func (s *Store) Years() ([]int, error) {
	rows, err := s.db.Query(`SELECT DISTINCT year FROM bank_questions ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	years := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}
