// Package export writes import results to the data, review and page-text
// directories. Every write replaces the file at its path.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/realexam/internal/model"
)

// ErrNoBanks is returned by Aggregate when no per-year question bank exists.
var ErrNoBanks = errors.New("no question bank files found")

const (
	completeBankName = "real-exam-complete.question-bank.json"
	previewRunes     = 100
)

var (
	yearBankName  = regexp.MustCompile(`^real-exam-(\d{4})\.question-bank\.json$`)
	candidateName = regexp.MustCompile(`^real-exam-(\d{4})\.candidate\.json$`)
)

// Exporter owns the output directory layout.
type Exporter struct {
	DataDir   string
	ReviewDir string
	PagesDir  string
	Logger    *slog.Logger
}

// New returns an exporter writing under the given directories.
func New(dataDir, reviewDir, pagesDir string) *Exporter {
	return &Exporter{DataDir: dataDir, ReviewDir: reviewDir, PagesDir: pagesDir, Logger: slog.Default()}
}

// CandidatePath is the candidate JSON file for year.
func (e *Exporter) CandidatePath(year int) string {
	return filepath.Join(e.DataDir, fmt.Sprintf("real-exam-%d.candidate.json", year))
}

// QuestionBankPath is the question-bank JSON file for year.
func (e *Exporter) QuestionBankPath(year int) string {
	return filepath.Join(e.DataDir, fmt.Sprintf("real-exam-%d.question-bank.json", year))
}

// ReviewPath is the review CSV for year.
func (e *Exporter) ReviewPath(year int) string {
	return filepath.Join(e.ReviewDir, fmt.Sprintf("%d_mappings.csv", year))
}

// PagesPath is the directory holding raw page texts for year.
func (e *Exporter) PagesPath(year int) string {
	return filepath.Join(e.PagesDir, strconv.Itoa(year))
}

// CompleteBankPath is the aggregate question bank.
func (e *Exporter) CompleteBankPath() string {
	return filepath.Join(e.DataDir, completeBankName)
}

// AppBankPath is the single-year app bank written by AggregateYear.
func (e *Exporter) AppBankPath(year int) string {
	return filepath.Join(e.DataDir, fmt.Sprintf("real-exam-%d-app.question-bank.json", year))
}

// WriteCandidates writes the full-fidelity candidate records for year.
func (e *Exporter) WriteCandidates(year int, cands []model.QuestionCandidate) (string, error) {
	records := make([]model.CandidateRecord, 0, len(cands))
	for _, c := range cands {
		records = append(records, c.ToRecord())
	}
	path := e.CandidatePath(year)
	if err := writeJSON(path, records); err != nil {
		return "", err
	}
	e.logger().Info("exported candidates", "year", year, "count", len(records), "path", path)
	return path, nil
}

// WriteQuestionBank writes app-format questions for year.
func (e *Exporter) WriteQuestionBank(year int, qs []model.BankQuestion) (string, error) {
	if qs == nil {
		qs = []model.BankQuestion{}
	}
	path := e.QuestionBankPath(year)
	if err := writeJSON(path, qs); err != nil {
		return "", err
	}
	e.logger().Info("exported question bank", "year", year, "count", len(qs), "path", path)
	return path, nil
}

// WriteReviewCSV writes one row per candidate for human review.
func (e *Exporter) WriteReviewCSV(year int, cands []model.QuestionCandidate) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "type", "page_num", "confidence", "parsing_notes", "content_preview"}); err != nil {
		return "", err
	}
	for _, c := range cands {
		row := []string{
			c.ID,
			string(c.Type),
			strconv.Itoa(c.PageNum),
			strconv.FormatFloat(c.Confidence, 'f', -1, 64),
			c.ParsingNotes,
			Preview(c.Content),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode review csv: %w", err)
	}

	path := e.ReviewPath(year)
	if err := writeFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	e.logger().Info("exported review sheet", "year", year, "rows", len(cands), "path", path)
	return path, nil
}

// WritePageTexts writes each page's text to {PagesDir}/{year}/{page:03d}.txt.
func (e *Exporter) WritePageTexts(year int, pages []model.Page) (string, error) {
	dir := e.PagesPath(year)
	for _, p := range pages {
		path := filepath.Join(dir, fmt.Sprintf("%03d.txt", p.Number))
		if err := writeFile(path, []byte(p.Text)); err != nil {
			return "", err
		}
	}
	e.logger().Info("exported page texts", "year", year, "pages", len(pages), "dir", dir)
	return dir, nil
}

// Preview returns the first 100 runes of s on one line, followed by "...".
func Preview(s string) string {
	r := []rune(s)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return strings.ReplaceAll(string(r), "\n", " ") + "..."
}

// LoadCandidates reads a candidate file written by WriteCandidates.
func LoadCandidates(path string) ([]model.QuestionCandidate, error) {
	var records []model.CandidateRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	cands := make([]model.QuestionCandidate, 0, len(records))
	for _, r := range records {
		cands = append(cands, r.Candidate())
	}
	return cands, nil
}

// LoadQuestionBank reads a per-year question-bank file.
func LoadQuestionBank(path string) ([]model.BankQuestion, error) {
	var qs []model.BankQuestion
	if err := readJSON(path, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// YearFile is a per-year file in the data directory.
type YearFile struct {
	Year int
	Path string
}

// YearBanks lists per-year question-bank files in DataDir ordered by year.
func (e *Exporter) YearBanks() ([]YearFile, error) {
	return e.yearFiles(yearBankName)
}

// CandidateFiles lists per-year candidate files in DataDir ordered by year.
func (e *Exporter) CandidateFiles() ([]YearFile, error) {
	return e.yearFiles(candidateName)
}

func (e *Exporter) yearFiles(name *regexp.Regexp) ([]YearFile, error) {
	entries, err := os.ReadDir(e.DataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var files []YearFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := name.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		files = append(files, YearFile{Year: year, Path: filepath.Join(e.DataDir, entry.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Year < files[j].Year })
	return files, nil
}

// Aggregate concatenates every per-year question bank into the complete bank.
// Unreadable files are logged and skipped.
func (e *Exporter) Aggregate(now time.Time) (string, int, error) {
	files, err := e.YearBanks()
	if err != nil {
		return "", 0, err
	}
	all := []model.BankQuestion{}
	for _, f := range files {
		qs, err := LoadQuestionBank(f.Path)
		if err != nil {
			e.logger().Warn("skipping unreadable question bank", "path", f.Path, "error", err)
			continue
		}
		e.logger().Debug("loaded question bank", "path", f.Path, "count", len(qs))
		all = append(all, qs...)
	}
	if len(all) == 0 {
		return "", 0, ErrNoBanks
	}
	path := e.CompleteBankPath()
	if err := writeJSON(path, NewCompleteBank(all, now)); err != nil {
		return "", 0, err
	}
	e.logger().Info("wrote complete question bank", "path", path, "questions", len(all), "files", len(files))
	return path, len(all), nil
}

// AggregateYear wraps a single year's question bank in the app format.
func (e *Exporter) AggregateYear(year int, now time.Time) (string, int, error) {
	qs, err := LoadQuestionBank(e.QuestionBankPath(year))
	if err != nil {
		return "", 0, err
	}
	path := e.AppBankPath(year)
	if err := writeJSON(path, NewCompleteBank(qs, now)); err != nil {
		return "", 0, err
	}
	return path, len(qs), nil
}

// NewCompleteBank wraps questions in the app's bank object.
func NewCompleteBank(qs []model.BankQuestion, now time.Time) model.CompleteBank {
	if qs == nil {
		qs = []model.BankQuestion{}
	}
	return model.CompleteBank{
		Questions:   qs,
		Favorites:   []string{},
		LastUpdated: now.Format(time.RFC3339),
	}
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, buf.Bytes())
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
