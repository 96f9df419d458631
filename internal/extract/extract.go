// Package extract reads page text from exam PDFs, falling back to OCR for
// pages whose text layer is missing or too short.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/pavelanni/realexam/internal/model"
)

// ErrExtract marks a document that could not be read at all.
var ErrExtract = errors.New("extract pdf text")

// DefaultMinChars is the rune count below which a page is sent to OCR.
const DefaultMinChars = 100

// TextSource is an open document's text layer.
type TextSource interface {
	NumPages() int
	PageText(n int) (string, error)
	Close() error
}

// Opener opens a document for text extraction.
type Opener func(path string) (TextSource, error)

// Rasterizer renders one page of a document to an image.
type Rasterizer interface {
	PageImage(ctx context.Context, path string, page int) (model.PageImage, error)
}

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img model.PageImage) (string, error)
}

// Extractor produces one model.Page per document page.
type Extractor struct {
	Open       Opener
	Rasterizer Rasterizer
	Recognizer Recognizer // nil disables OCR
	MinChars   int
	Logger     *slog.Logger
}

// New returns an extractor over the PDF text layer. Pass a nil recognizer to
// disable OCR.
func New(r Rasterizer, rec Recognizer) *Extractor {
	return &Extractor{
		Open:       OpenPDF,
		Rasterizer: r,
		Recognizer: rec,
		MinChars:   DefaultMinChars,
		Logger:     slog.Default(),
	}
}

// Extract returns the pages of the document at path in order.
func (e *Extractor) Extract(ctx context.Context, path string) (pages []model.Page, err error) {
	open := e.Open
	if open == nil {
		open = OpenPDF
	}
	src, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrExtract, path, err)
	}
	defer src.Close()

	// The PDF reader panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", ErrExtract, path, r)
		}
	}()

	n := src.NumPages()
	pages = make([]model.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(i)
		if err != nil {
			e.logger().Warn("page text unreadable", "path", path, "page", i, "error", err)
			text = ""
		}
		page := model.Page{Number: i, Text: strings.TrimSpace(text), Method: model.MethodText}
		if e.needsOCR(text) {
			e.recognize(ctx, path, &page)
		}
		pages = append(pages, page)
	}
	e.logger().Debug("extracted pages", "path", path, "pages", len(pages))
	return pages, nil
}

func (e *Extractor) needsOCR(text string) bool {
	if e.Recognizer == nil || e.Rasterizer == nil {
		return false
	}
	min := e.MinChars
	if min <= 0 {
		min = DefaultMinChars
	}
	return utf8.RuneCountInString(strings.TrimSpace(text)) < min
}

func (e *Extractor) recognize(ctx context.Context, path string, page *model.Page) {
	img, err := e.Rasterizer.PageImage(ctx, path, page.Number)
	if err == nil {
		var text string
		text, err = e.Recognizer.Recognize(ctx, img)
		if err == nil && strings.TrimSpace(text) != "" {
			page.Text = strings.TrimSpace(text)
			page.Method = model.MethodOCR
			return
		}
		if err == nil {
			// Empty output keeps whatever the text layer had.
			return
		}
	}
	e.logger().Warn("ocr failed, keeping text layer", "path", path, "page", page.Number, "error", err)
	page.Method = model.MethodOCRFailed
	page.OCRErr = err
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

type pdfSource struct {
	closer interface{ Close() error }
	r      *pdf.Reader
	fonts  map[string]*pdf.Font
}

// OpenPDF opens path with the pure-Go PDF reader.
func OpenPDF(path string) (TextSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &pdfSource{closer: f, r: r, fonts: make(map[string]*pdf.Font)}, nil
}

func (s *pdfSource) NumPages() int { return s.r.NumPage() }

func (s *pdfSource) PageText(n int) (string, error) {
	p := s.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	for _, name := range p.Fonts() {
		if _, ok := s.fonts[name]; !ok {
			f := p.Font(name)
			s.fonts[name] = &f
		}
	}
	return p.GetPlainText(s.fonts)
}

func (s *pdfSource) Close() error { return s.closer.Close() }
