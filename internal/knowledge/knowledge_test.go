package knowledge

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pavelanni/realexam/internal/model"
)

func TestInfer(t *testing.T) {
	m := NewMapper(DefaultTable())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "设 x 为实数", []string{}},
		{"single", "求极限", []string{"calc-1-3", "calc-1-4", "calc-1-5"}},
		{"overlapping keywords", "特征值与特征向量", []string{"la-3-1", "la-3-2"}},
		{"nested keyword", "解微分方程", []string{"calc-2-1", "calc-2-2", "calc-2-3", "calc-7-1", "calc-7-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Infer(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Infer(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestInferCaseInsensitive(t *testing.T) {
	m := NewMapper(Table{Keywords: map[string][]string{"Matrix": {"la-2-1"}}})
	if got := m.Infer("the MATRIX A"); !reflect.DeepEqual(got, []string{"la-2-1"}) {
		t.Errorf("Infer = %v", got)
	}
}

func TestInferMonotonic(t *testing.T) {
	m := NewMapper(DefaultTable())
	base := "设随机变量 X 服从"
	before := m.Infer(base)
	for kw := range DefaultTable().Keywords {
		after := m.Infer(base + kw)
		set := make(map[string]bool, len(after))
		for _, tag := range after {
			set[tag] = true
		}
		for _, tag := range before {
			if !set[tag] {
				t.Errorf("adding %q dropped tag %q", kw, tag)
			}
		}
		if len(after) < len(before) {
			t.Errorf("adding %q shrank the tag set", kw)
		}
	}
}

func TestApply(t *testing.T) {
	m := NewMapper(DefaultTable())

	hit := model.QuestionCandidate{Content: "计算定积分", Confidence: model.BaseConfidence}
	m.Apply(&hit)
	if len(hit.KnowledgePoints) == 0 {
		t.Fatal("expected knowledge points")
	}
	if hit.Confidence < 0.69 || hit.Confidence > 0.71 {
		t.Errorf("confidence = %v, want 0.7", hit.Confidence)
	}

	m.Apply(&hit)
	if hit.Confidence > 0.71 {
		t.Errorf("second Apply bumped again: %v", hit.Confidence)
	}

	miss := model.QuestionCandidate{Content: "设 x 为实数", Confidence: model.BaseConfidence}
	m.Apply(&miss)
	if miss.Confidence != model.BaseConfidence {
		t.Errorf("confidence changed without matches: %v", miss.Confidence)
	}
}

func TestSubject(t *testing.T) {
	m := NewMapper(DefaultTable())
	tests := map[string]string{
		"求极限":     "calculus",
		"矩阵 A 的秩": "linear",
		"随机变量 X":  "probability",
		"设 x 为实数": "calculus",
		"概率与矩阵":   "linear",
	}
	for text, want := range tests {
		if got := m.Subject(text); got != want {
			t.Errorf("Subject(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kp.yaml")
	data := []byte("keywords:\n  group: [alg-1]\ndefault_subject: algebra\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	m := NewMapper(tbl)
	if got := m.Infer("a Group"); !reflect.DeepEqual(got, []string{"alg-1"}) {
		t.Errorf("Infer = %v", got)
	}
	if got := m.Subject("anything"); got != "algebra" {
		t.Errorf("Subject = %q", got)
	}

	if _, err := LoadTable(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ParseTable([]byte("subjects: []\n")); err == nil {
		t.Error("expected error for table without keywords")
	}
}
