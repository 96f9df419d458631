package parse

import (
	"regexp"

	"github.com/pavelanni/realexam/internal/model"
)

var (
	choiceMarker = regexp.MustCompile(`\([A-D]\)`)
	blankMarker  = regexp.MustCompile(`_{3,}|\(\s*\)|【\s*】|\[\s*\]`)
	solveKeyword = regexp.MustCompile(`解\s*:|证明|计算|求|(?i:solve\s*:|prove|calculate)`)
	scoreMarker  = regexp.MustCompile(`\((\d+)\s*(?:分|points?)\)|(\d+)\s*(?:分|points?)`)
	answerMarker = regexp.MustCompile(`(?:答案|(?i:answer))\s*:\s*([A-D]|\d+|[^。\n]+)`)
	optionMarker = regexp.MustCompile(`\(([A-D])\)`)
)

// Classify decides the question type of a block. The first matching rule
// wins; a block matching nothing is a solve question with EvidenceDefault.
func Classify(block string) (model.QuestionType, model.Evidence) {
	switch {
	case choiceMarker.MatchString(block):
		return model.TypeChoice, model.EvidenceOptions
	case blankMarker.MatchString(block):
		return model.TypeBlank, model.EvidenceBlank
	case solveKeyword.MatchString(block):
		return model.TypeSolve, model.EvidenceKeyword
	case scoreMarker.MatchString(block):
		return model.TypeSolve, model.EvidenceScore
	default:
		return model.TypeSolve, model.EvidenceDefault
	}
}
