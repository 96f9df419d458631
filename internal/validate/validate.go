// Package validate checks reviewed candidate files before they are shipped
// to the study app.
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/realexam/internal/model"
)

// ExpectedCounts is the number of questions of each type in one exam paper.
var ExpectedCounts = map[model.QuestionType]int{
	model.TypeChoice: 10,
	model.TypeBlank:  6,
	model.TypeSolve:  9,
}

var (
	optionPrefix = regexp.MustCompile(`^[A-D](?:\.| )`)
	idPattern    = regexp.MustCompile(`^\d{4}-[cbs]-\d+$`)
)

// Result is the outcome of validating one year.
type Result struct {
	Year     int
	Total    int
	Counts   map[model.QuestionType]int
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found. Warnings do not count.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

// ValidateFile reads a candidate file and validates it for year.
func ValidateFile(path string, year int) *Result {
	res := &Result{Year: year, Counts: make(map[model.QuestionType]int)}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("read file: %v", err))
		return res
	}
	var records []model.CandidateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("file must hold an array of questions: %v", err))
		return res
	}
	return ValidateYear(records, year)
}

// ValidateYear checks every record, the per-type counts and id uniqueness.
func ValidateYear(records []model.CandidateRecord, year int) *Result {
	res := &Result{Year: year, Total: len(records), Counts: make(map[model.QuestionType]int)}
	for _, r := range records {
		if r.Type.Valid() {
			res.Counts[r.Type]++
		}
	}

	for _, t := range []model.QuestionType{model.TypeChoice, model.TypeBlank, model.TypeSolve} {
		if want, got := ExpectedCounts[t], res.Counts[t]; got != want {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s count mismatch: expected %d, got %d", t, want, got))
		}
	}

	for i, r := range records {
		if problems := ValidateQuestion(r, year); len(problems) > 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("question %d (%s): %s", i+1, r.ID, strings.Join(problems, ", ")))
		}
	}

	seen := make(map[string]bool, len(records))
	var dups []string
	for _, r := range records {
		if seen[r.ID] {
			dups = append(dups, r.ID)
		}
		seen[r.ID] = true
	}
	if len(dups) > 0 {
		res.Errors = append(res.Errors, "duplicate question ids: "+strings.Join(dups, ", "))
	}
	return res
}

// ValidateQuestion returns the problems found in one record.
func ValidateQuestion(r model.CandidateRecord, year int) []string {
	if !r.Type.Valid() {
		return []string{fmt.Sprintf("unknown question type %q", r.Type)}
	}

	var problems []string
	if !idPattern.MatchString(r.ID) || !strings.HasPrefix(r.ID, strconv.Itoa(year)+"-") {
		problems = append(problems, fmt.Sprintf("invalid id %q", r.ID))
	}
	if blank(r.Content) {
		problems = append(problems, "content is empty")
	}
	if len(r.KnowledgePoints) == 0 {
		problems = append(problems, "knowledge points are empty")
	}

	switch r.Type {
	case model.TypeChoice:
		if r.Options == nil || len(*r.Options) != 4 {
			problems = append(problems, "choice question needs 4 options")
		} else {
			for i, opt := range *r.Options {
				if !optionPrefix.MatchString(opt) {
					problems = append(problems, fmt.Sprintf("option %d is malformed: %q", i+1, opt))
				}
			}
		}
		if ans := deref(r.Answer); len(ans) != 1 || !strings.Contains("ABCD", ans) {
			problems = append(problems, fmt.Sprintf("answer must be one of A/B/C/D, got %q", ans))
		}
		if blank(r.Explanation) {
			problems = append(problems, "explanation is empty")
		}
	case model.TypeBlank:
		if blank(deref(r.Answer)) {
			problems = append(problems, "answer is empty")
		}
		if blank(r.Explanation) {
			problems = append(problems, "explanation is empty")
		}
	case model.TypeSolve:
		if blank(deref(r.Solution)) {
			problems = append(problems, "solution is empty")
		}
		if r.Score == nil || *r.Score <= 0 {
			problems = append(problems, "score must be positive")
		}
	}
	return problems
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
