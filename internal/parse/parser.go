// Package parse turns page text into exam question candidates.
package parse

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/realexam/internal/model"
)

// ErrPanic wraps a panic recovered while parsing a single block.
var ErrPanic = errors.New("panic while parsing block")

// BlockError describes a block that was dropped because parsing failed.
type BlockError struct {
	Page  int
	Index int
	Block string
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("page %d block %d: %v", e.Page, e.Index, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// Notes are the reviewer notes attached to every candidate.
type Notes struct {
	Auto      string // attached to every candidate
	Defaulted string // appended when the type came from the default rule
}

// DefaultNotes are used when a Parser has no notes configured.
var DefaultNotes = Notes{
	Auto:      "自动解析，需要人工审核",
	Defaulted: "未匹配题型特征，默认归为解答题",
}

// Parser splits pages into blocks and builds candidates from them.
type Parser struct {
	Segmenter Segmenter
	// Strict turns default-classified blocks into unclassified ones that are
	// reported instead of exported.
	Strict bool
	Notes  Notes
	Logger *slog.Logger
}

// Result is the outcome of parsing one document (or one year of a collection).
type Result struct {
	Candidates   []model.QuestionCandidate
	Unclassified []Unclassified
	Errors       []*BlockError
	Blocks       int
}

// Unclassified is a block held back under strict classification.
type Unclassified struct {
	Page  int
	Block string
}

// New returns a parser with the paren segmenter and default notes.
func New() *Parser {
	return &Parser{Segmenter: NewParenSegmenter(), Notes: DefaultNotes, Logger: slog.Default()}
}

// ParsePages parses every page in order. Sequence numbers in candidate ids
// run across all pages so ids are unique within one call.
func (p *Parser) ParsePages(pages []model.Page, year int) Result {
	var res Result
	seq := 0
	for _, page := range pages {
		blocks := p.segmenter().Split(Clean(page.Text))
		res.Blocks += len(blocks)
		for i, block := range blocks {
			c, err := p.parseBlock(block, year, seq+1, page.Number)
			if err != nil {
				be := &BlockError{Page: page.Number, Index: i + 1, Block: block, Err: err}
				p.logger().Warn("dropping question block", "page", page.Number, "block", i+1, "error", err)
				res.Errors = append(res.Errors, be)
				continue
			}
			if c.Type == model.TypeUnclassified {
				res.Unclassified = append(res.Unclassified, Unclassified{Page: page.Number, Block: block})
				continue
			}
			seq++
			res.Candidates = append(res.Candidates, c)
		}
	}
	p.logger().Debug("parsed pages", "year", year, "blocks", res.Blocks,
		"candidates", len(res.Candidates), "unclassified", len(res.Unclassified), "errors", len(res.Errors))
	return res
}

func (p *Parser) parseBlock(block string, year, seq, pageNum int) (c model.QuestionCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	typ, ev := Classify(block)
	if ev == model.EvidenceDefault && p.Strict {
		return model.QuestionCandidate{Type: model.TypeUnclassified, Content: block, PageNum: pageNum, Evidence: ev}, nil
	}

	notes := p.notes()
	c = model.QuestionCandidate{
		ID:           fmt.Sprintf("%d-%s-%d", year, typ.Prefix(), seq),
		Type:         typ,
		Content:      block,
		PageNum:      pageNum,
		Confidence:   model.BaseConfidence,
		ParsingNotes: notes.Auto,
		Evidence:     ev,
	}
	if ev == model.EvidenceDefault && notes.Defaulted != "" {
		c.ParsingNotes += "; " + notes.Defaulted
	}
	if err := fillFields(&c, block); err != nil {
		return model.QuestionCandidate{}, err
	}
	return c, nil
}

func (p *Parser) segmenter() Segmenter {
	if p.Segmenter == nil {
		return NewParenSegmenter()
	}
	return p.Segmenter
}

func (p *Parser) notes() Notes {
	if p.Notes == (Notes{}) {
		return DefaultNotes
	}
	return p.Notes
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
