package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/realexam/internal/model"
)

func ptr[T any](v T) *T { return &v }

func goodChoice(id string) model.CandidateRecord {
	return model.CandidateRecord{
		ID: id, Type: model.TypeChoice, Content: "设函数", Explanation: "由定义",
		KnowledgePoints: []string{"calc-1-3"},
		Options:         ptr([]string{"A. 1", "B. 2", "C. 3", "D. 4"}),
		Answer:          ptr("C"),
	}
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		rec     model.CandidateRecord
		wantSub []string
	}{
		{"good choice", goodChoice("2024-c-1"), nil},
		{"wrong year id", goodChoice("2023-c-1"), []string{"invalid id"}},
		{"five digit year", goodChoice("20245-c-1"), []string{"invalid id"}},
		{"unknown prefix", goodChoice("2024-x-1"), []string{"invalid id"}},
		{"missing sequence", goodChoice("2024-c-"), []string{"invalid id"}},
		{"three options", func() model.CandidateRecord {
			r := goodChoice("2024-c-2")
			r.Options = ptr([]string{"A. 1", "B. 2", "C. 3"})
			return r
		}(), []string{"4 options"}},
		{"bad option and answer", func() model.CandidateRecord {
			r := goodChoice("2024-c-3")
			r.Options = ptr([]string{"A. 1", "B. 2", "C. 3", "(D) 4"})
			r.Answer = ptr("")
			return r
		}(), []string{"option 4 is malformed", "answer must be one of"}},
		{"blank without answer", model.CandidateRecord{
			ID: "2024-b-4", Type: model.TypeBlank, Content: "x", Explanation: "y",
			KnowledgePoints: []string{"k"}, Answer: ptr(" "),
		}, []string{"answer is empty"}},
		{"solve zero score", model.CandidateRecord{
			ID: "2024-s-5", Type: model.TypeSolve, Content: "x",
			KnowledgePoints: []string{"k"}, Solution: ptr("steps"), Score: ptr(0),
		}, []string{"score must be positive"}},
		{"solve missing everything", model.CandidateRecord{ID: "2024-s-6", Type: model.TypeSolve}, []string{
			"content is empty", "knowledge points are empty", "solution is empty", "score must be positive",
		}},
		{"unknown type", model.CandidateRecord{ID: "2024-u-7", Type: model.TypeUnclassified}, []string{"unknown question type"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateQuestion(tt.rec, 2024)
			if len(tt.wantSub) == 0 && len(got) != 0 {
				t.Fatalf("unexpected problems: %q", got)
			}
			joined := strings.Join(got, "; ")
			for _, sub := range tt.wantSub {
				if !strings.Contains(joined, sub) {
					t.Errorf("problems %q missing %q", joined, sub)
				}
			}
		})
	}
}

func TestValidateYear(t *testing.T) {
	records := []model.CandidateRecord{goodChoice("2024-c-1"), goodChoice("2024-c-2"), goodChoice("2024-c-1")}
	res := ValidateYear(records, 2024)

	if res.Valid() {
		t.Fatal("duplicate ids should be an error")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "duplicate question ids: 2024-c-1") {
		t.Errorf("errors = %q", res.Errors)
	}
	if res.Counts[model.TypeChoice] != 3 || res.Total != 3 {
		t.Errorf("counts = %v total = %d", res.Counts, res.Total)
	}
	if len(res.Warnings) != 3 {
		t.Errorf("warnings = %q, want one per type", res.Warnings)
	}
}

func TestValidateYearExpectedCountsNoWarnings(t *testing.T) {
	var records []model.CandidateRecord
	add := func(typ model.QuestionType, n int) {
		for i := 0; i < n; i++ {
			records = append(records, model.CandidateRecord{ID: "x", Type: typ})
		}
	}
	add(model.TypeChoice, 10)
	add(model.TypeBlank, 6)
	add(model.TypeSolve, 9)
	if res := ValidateYear(records, 2022); len(res.Warnings) != 0 {
		t.Errorf("warnings = %q", res.Warnings)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := ValidateFile(bad, 2024); res.Valid() {
		t.Error("object file should be invalid")
	}

	if res := ValidateFile(filepath.Join(dir, "missing.json"), 2024); res.Valid() {
		t.Error("missing file should be invalid")
	}

	good := filepath.Join(dir, "good.json")
	if err := os.WriteFile(good, []byte(`[{"id":"2024-c-1","type":"choice","content":"q","explanation":"e","knowledgePoints":["k"],"page_num":1,"confidence":0.7,"parsing_notes":"","options":["A. 1","B. 2","C. 3","D. 4"],"answer":"A"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	res := ValidateFile(good, 2024)
	if !res.Valid() {
		t.Errorf("errors = %q", res.Errors)
	}
	if res.Counts[model.TypeChoice] != 1 {
		t.Errorf("counts = %v", res.Counts)
	}
}
