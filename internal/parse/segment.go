package parse

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var (
	newlineRun = regexp.MustCompile(`\n+`)
	spaceRun   = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// Clean folds full-width forms to their ASCII equivalents and collapses all
// whitespace runs to single spaces.
func Clean(text string) string {
	text = width.Fold.String(text)
	text = newlineRun.ReplaceAllString(text, "\n")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Segmenter partitions cleaned page text into question blocks.
type Segmenter interface {
	Split(text string) []string
}

var (
	parenMarker  = regexp.MustCompile(`\(\d+\)`)
	dottedMarker = regexp.MustCompile(`(?:^|\s)\d{1,2}(?:\.\s|、)`)
)

// MarkerSegmenter splits text at every match of Marker.
type MarkerSegmenter struct {
	Marker *regexp.Regexp
}

// NewParenSegmenter returns a segmenter for "(12)" style question numbers.
func NewParenSegmenter() *MarkerSegmenter {
	return &MarkerSegmenter{Marker: parenMarker}
}

// NewDottedSegmenter returns a segmenter for "12." and "12、" style question numbers.
func NewDottedSegmenter() *MarkerSegmenter {
	return &MarkerSegmenter{Marker: dottedMarker}
}

// SegmenterByName resolves a configured segmenter name.
func SegmenterByName(name string) (Segmenter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "paren":
		return NewParenSegmenter(), nil
	case "dotted":
		return NewDottedSegmenter(), nil
	default:
		return nil, fmt.Errorf("unknown segmenter %q (want paren or dotted)", name)
	}
}

// Split slices the text between consecutive markers; text before the first
// marker is dropped. When no block is found it falls back to accumulate.
func (s *MarkerSegmenter) Split(text string) []string {
	if blocks := s.slice(text); len(blocks) > 0 {
		return blocks
	}
	return s.accumulate(text)
}

func (s *MarkerSegmenter) slice(text string) []string {
	locs := s.Marker.FindAllStringIndex(text, -1)
	var blocks []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if b := strings.TrimSpace(text[loc[0]:end]); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// accumulate walks the text emitting a block each time a new marker starts.
// Leading text before the first marker becomes a block of its own.
func (s *MarkerSegmenter) accumulate(text string) []string {
	var (
		blocks []string
		cur    strings.Builder
		last   int
	)
	flush := func() {
		if b := strings.TrimSpace(cur.String()); b != "" {
			blocks = append(blocks, b)
		}
		cur.Reset()
	}
	for _, loc := range s.Marker.FindAllStringIndex(text, -1) {
		cur.WriteString(text[last:loc[0]])
		flush()
		cur.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	cur.WriteString(text[last:])
	flush()
	return blocks
}
