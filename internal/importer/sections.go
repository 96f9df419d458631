package importer

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pavelanni/realexam/internal/model"
)

// DefaultMinSectionPages is the smallest year section worth importing.
const DefaultMinSectionPages = 6

var (
	examHeading   = regexp.MustCompile(`(\d{4})年.*?数学`)
	answerHeading = regexp.MustCompile(`(\d{4})年.*?答案`)
)

// Section is the run of pages belonging to one year of a collection.
type Section struct {
	Year  int
	Pages []model.Page
}

func headingFor(kind model.SourceKind) (*regexp.Regexp, error) {
	switch kind {
	case model.KindCollection:
		return examHeading, nil
	case model.KindAnswers:
		return answerHeading, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// SplitByYear groups pages under the most recent year heading. Pages before
// the first heading are dropped. A year whose heading appears again later
// collects both runs, and sections keep the order of first appearance.
func SplitByYear(pages []model.Page, heading *regexp.Regexp) []Section {
	var sections []Section
	index := make(map[int]int)
	current := -1
	for _, p := range pages {
		if m := heading.FindStringSubmatch(p.Text); m != nil {
			year, err := strconv.Atoi(m[1])
			if err == nil {
				i, ok := index[year]
				if !ok {
					i = len(sections)
					index[year] = i
					sections = append(sections, Section{Year: year})
				}
				current = i
			}
		}
		if current < 0 {
			continue
		}
		sections[current].Pages = append(sections[current].Pages, p)
	}
	return sections
}
