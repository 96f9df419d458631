package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/realexam/internal/model"
)

const maxOptions = 4

func fillFields(c *model.QuestionCandidate, block string) error {
	switch c.Type {
	case model.TypeChoice:
		fillChoice(c, block)
	case model.TypeBlank:
		fillBlank(c, block)
	case model.TypeSolve:
		return fillSolve(c, block)
	}
	return nil
}

func fillChoice(c *model.QuestionCandidate, block string) {
	locs := optionMarker.FindAllStringSubmatchIndex(block, -1)
	if len(locs) == 0 {
		c.Content = block
		c.Options = []string{}
	} else {
		c.Content = strings.TrimSpace(block[:locs[0][0]])
		n := min(len(locs), maxOptions)
		opts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			end := len(block)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			letter := block[locs[i][2]:locs[i][3]]
			opts = append(opts, letter+". "+strings.TrimSpace(block[locs[i][1]:end]))
		}
		c.Options = opts
	}
	if ans, ok := findAnswer(block); ok {
		c.Answer = ans
	}
}

func fillBlank(c *model.QuestionCandidate, block string) {
	c.Content = block
	if ans, ok := findAnswer(block); ok {
		c.Answer = ans
		c.AcceptedAnswers = []string{ans}
	}
}

func fillSolve(c *model.QuestionCandidate, block string) error {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := scoreMarker.FindStringSubmatch(line); m != nil {
			digits := m[1]
			if digits == "" {
				digits = m[2]
			}
			score, err := strconv.Atoi(digits)
			if err != nil {
				return fmt.Errorf("score marker %q: %w", m[0], err)
			}
			c.Score = score
			line = strings.TrimSpace(scoreMarker.ReplaceAllString(line, ""))
		}
		lines = append(lines, line)
	}
	c.Content = strings.Join(lines, "\n")
	return nil
}

func findAnswer(block string) (string, bool) {
	m := answerMarker.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	ans := strings.TrimSpace(m[1])
	return ans, ans != ""
}
