// Package knowledge maps question text to knowledge point tags and subjects
// using a keyword table that is loaded at runtime.
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/realexam/internal/model"
)

//go:embed default.yaml
var defaultTable []byte

// DefaultBump is the confidence added to a candidate with at least one match.
const DefaultBump = 0.2

// SubjectRule assigns Name to any text containing one of Keywords.
type SubjectRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Table is the keyword configuration.
type Table struct {
	Keywords       map[string][]string `yaml:"keywords"`
	Subjects       []SubjectRule       `yaml:"subjects"`
	DefaultSubject string              `yaml:"default_subject"`
}

// ParseTable decodes a YAML (or JSON) table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse knowledge table: %w", err)
	}
	if len(t.Keywords) == 0 {
		return Table{}, fmt.Errorf("parse knowledge table: no keywords defined")
	}
	return t, nil
}

// DefaultTable returns the embedded table.
func DefaultTable() Table {
	t, err := ParseTable(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTable reads a table from path, or returns the embedded one when path is empty.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read knowledge table: %w", err)
	}
	return ParseTable(data)
}

// Mapper infers knowledge points and subjects from question text.
type Mapper struct {
	table Table
	bump  float64
}

// NewMapper creates a mapper over t with the default confidence bump.
func NewMapper(t Table) *Mapper {
	return &Mapper{table: t, bump: DefaultBump}
}

// Infer returns the sorted union of tags for every keyword found in text.
func (m *Mapper) Infer(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	for kw, tags := range m.table.Keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			continue
		}
		for _, tag := range tags {
			seen[tag] = struct{}{}
		}
	}
	points := make([]string, 0, len(seen))
	for tag := range seen {
		points = append(points, tag)
	}
	sort.Strings(points)
	return points
}

// Apply sets the candidate's knowledge points from its content.
func (m *Mapper) Apply(c *model.QuestionCandidate) {
	c.SetKnowledgePoints(m.Infer(c.Content), m.bump)
}

// Subject returns the first subject whose keywords appear in text.
func (m *Mapper) Subject(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range m.table.Subjects {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Name
			}
		}
	}
	return m.table.DefaultSubject
}
