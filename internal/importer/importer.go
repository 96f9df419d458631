// Package importer runs the extract, parse, map and export stages over exam
// documents and reports what each run produced.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pavelanni/realexam/internal/export"
	"github.com/pavelanni/realexam/internal/knowledge"
	"github.com/pavelanni/realexam/internal/model"
	"github.com/pavelanni/realexam/internal/parse"
)

var (
	// ErrNoText is returned when a document yields no pages.
	ErrNoText = errors.New("no text extracted")
	// ErrNoQuestions is returned when no candidate survives parsing.
	ErrNoQuestions = errors.New("no questions found")
	// ErrNoSections is returned when a collection has no importable year.
	ErrNoSections = errors.New("no year sections imported")
	// ErrUnknownKind is returned for a source kind the importer cannot handle.
	ErrUnknownKind = errors.New("unknown source kind")
)

// PageExtractor reads the pages of a document.
type PageExtractor interface {
	Extract(ctx context.Context, path string) ([]model.Page, error)
}

// Importer wires the pipeline stages together.
type Importer struct {
	Extractor PageExtractor
	Parser    *parse.Parser
	Mapper    *knowledge.Mapper
	Exporter  *export.Exporter
	// MinSectionPages is the fewest pages a collection year needs to be imported.
	MinSectionPages int
	Logger          *slog.Logger
}

// New returns an importer with default section size.
func New(ex PageExtractor, p *parse.Parser, m *knowledge.Mapper, exp *export.Exporter) *Importer {
	return &Importer{
		Extractor:       ex,
		Parser:          p,
		Mapper:          m,
		Exporter:        exp,
		MinSectionPages: DefaultMinSectionPages,
		Logger:          slog.Default(),
	}
}

// Report describes one year imported from one document.
type Report struct {
	File          string
	Year          int
	Pages         int
	PagesByMethod map[model.ExtractMethod]int
	Blocks        int
	ByType        map[model.QuestionType]int
	Unclassified  int
	BlockErrors   []*parse.BlockError
	Files         []string
	Err           error
}

// OK reports whether the import produced output files.
func (r *Report) OK() bool { return r.Err == nil }

// Candidates is the number of exported candidates.
func (r *Report) Candidates() int {
	n := 0
	for _, c := range r.ByType {
		n += c
	}
	return n
}

func newReport(file string, year int) *Report {
	return &Report{
		File:          file,
		Year:          year,
		PagesByMethod: make(map[model.ExtractMethod]int),
		ByType:        make(map[model.QuestionType]int),
	}
}

func (r *Report) fail(err error) (*Report, error) {
	r.Err = err
	return r, err
}

// ImportYear imports a document holding a single year's exam.
func (im *Importer) ImportYear(ctx context.Context, path string, year int) (*Report, error) {
	rep := newReport(path, year)
	im.logger().Info("importing exam", "file", filepath.Base(path), "year", year)

	pages, err := im.Extractor.Extract(ctx, path)
	if err != nil {
		return rep.fail(err)
	}
	return im.importPages(rep, pages)
}

// ImportCollection imports a multi-year document, one report per year found.
// kind selects the heading pattern used to split it.
func (im *Importer) ImportCollection(ctx context.Context, path string, kind model.SourceKind) ([]*Report, error) {
	heading, err := headingFor(kind)
	if err != nil {
		return nil, err
	}
	im.logger().Info("importing collection", "file", filepath.Base(path), "kind", kind)

	pages, err := im.Extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoText
	}

	var reports []*Report
	for _, sec := range SplitByYear(pages, heading) {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if len(sec.Pages) < im.minSectionPages() {
			im.logger().Info("skipping short year section", "year", sec.Year, "pages", len(sec.Pages))
			continue
		}
		rep, err := im.importPages(newReport(path, sec.Year), sec.Pages)
		if err != nil {
			im.logger().Warn("year section not imported", "year", sec.Year, "error", err)
		}
		reports = append(reports, rep)
	}

	for _, rep := range reports {
		if rep.OK() {
			return reports, nil
		}
	}
	return reports, ErrNoSections
}

func (im *Importer) importPages(rep *Report, pages []model.Page) (*Report, error) {
	if len(pages) == 0 {
		return rep.fail(ErrNoText)
	}
	rep.Pages = len(pages)
	for _, p := range pages {
		rep.PagesByMethod[p.Method]++
	}

	dir, err := im.Exporter.WritePageTexts(rep.Year, pages)
	if err != nil {
		return rep.fail(err)
	}
	rep.Files = append(rep.Files, dir)

	res := im.Parser.ParsePages(pages, rep.Year)
	rep.Blocks = res.Blocks
	rep.BlockErrors = res.Errors
	rep.Unclassified = len(res.Unclassified)
	if len(res.Candidates) == 0 {
		return rep.fail(ErrNoQuestions)
	}

	cands := res.Candidates
	for i := range cands {
		im.Mapper.Apply(&cands[i])
		rep.ByType[cands[i].Type]++
	}

	path, err := im.Exporter.WriteCandidates(rep.Year, cands)
	if err != nil {
		return rep.fail(err)
	}
	rep.Files = append(rep.Files, path)

	path, err = im.Exporter.WriteQuestionBank(rep.Year, export.ToBankQuestions(rep.Year, cands, im.Mapper.Subject))
	if err != nil {
		return rep.fail(err)
	}
	rep.Files = append(rep.Files, path)

	path, err = im.Exporter.WriteReviewCSV(rep.Year, cands)
	if err != nil {
		return rep.fail(err)
	}
	rep.Files = append(rep.Files, path)

	im.logger().Info("imported year", "year", rep.Year, "pages", rep.Pages,
		"candidates", len(cands), "block_errors", len(rep.BlockErrors))
	return rep, nil
}

// ImportAll imports every known PDF in dir. Unknown files are skipped and a
// failed file does not stop the others. The error is non-nil only when dir
// cannot be read.
func (im *Importer) ImportAll(ctx context.Context, dir string, sources []model.Source) ([]*Report, error) {
	byName := make(map[string]model.Source, len(sources))
	for _, s := range sources {
		byName[s.File] = s
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read pdf dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var reports []*Report
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		src, ok := byName[name]
		if !ok {
			im.logger().Warn("skipping unknown pdf", "file", name)
			continue
		}
		path := filepath.Join(dir, name)

		switch src.Kind {
		case model.KindCollection, model.KindAnswers:
			reps, err := im.ImportCollection(ctx, path, src.Kind)
			if err != nil && len(reps) == 0 {
				rep := newReport(path, 0)
				rep.Err = err
				reps = []*Report{rep}
			}
			reports = append(reports, reps...)
		default:
			rep, err := im.ImportYear(ctx, path, src.Year)
			if err != nil {
				im.logger().Error("import failed", "file", name, "year", src.Year, "error", err)
			}
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

func (im *Importer) minSectionPages() int {
	if im.MinSectionPages <= 0 {
		return DefaultMinSectionPages
	}
	return im.MinSectionPages
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger == nil {
		return slog.Default()
	}
	return im.Logger
}
