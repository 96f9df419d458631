// Package prompts holds the prompt templates sent to the vision model.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
	"text/template"
)

//go:embed ocr.txt
var ocrSource string

var (
	loadOnce    sync.Once
	loadErr     error
	ocrTemplate *template.Template
)

// OCRData holds template data for the page transcription prompt.
type OCRData struct {
	PageNr int
}

// Load parses the embedded templates once.
func Load() error {
	loadOnce.Do(func() {
		ocrTemplate, loadErr = template.New("ocr").Parse(ocrSource)
		if loadErr != nil {
			loadErr = fmt.Errorf("parse ocr prompt: %w", loadErr)
		}
	})
	return loadErr
}

// BuildOCRPrompt renders the transcription prompt for one page.
func BuildOCRPrompt(data OCRData) (string, error) {
	if err := Load(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := ocrTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
