package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pavelanni/realexam/internal/model"
)

const (
	bankDifficulty = "intermediate"
	bankSource     = "real-exam"
)

var (
	leadingNumber = regexp.MustCompile(`^\d+\.\s*`)
	anySpace      = regexp.MustCompile(`\s+`)
)

// ToBankQuestions converts candidates to the app's question-bank format.
// subject infers a subject from question content.
func ToBankQuestions(year int, cands []model.QuestionCandidate, subject func(string) string) []model.BankQuestion {
	out := make([]model.BankQuestion, 0, len(cands))
	for _, c := range cands {
		if !c.Type.Valid() {
			continue
		}
		rec := c.ToRecord()
		q := model.BankQuestion{
			ID:              fmt.Sprintf("real-exam-%d-%s", year, c.ID),
			Type:            c.Type,
			Subject:         subject(c.Content),
			Difficulty:      bankDifficulty,
			Source:          bankSource,
			CreatedAt:       fmt.Sprintf("%d-01-01T00:00:00.000Z", year),
			KnowledgePoints: rec.KnowledgePoints,
			Explanation:     c.Explanation,
			Question:        CleanQuestion(c.Content),
			Options:         rec.Options,
			Answer:          rec.Answer,
			AcceptedAnswers: rec.AcceptedAnswers,
			Score:           rec.Score,
			Solution:        rec.Solution,
		}
		out = append(out, q)
	}
	return out
}

// CleanQuestion strips a leading "12." question number and collapses whitespace.
func CleanQuestion(content string) string {
	content = leadingNumber.ReplaceAllString(strings.TrimSpace(content), "")
	content = anySpace.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}
