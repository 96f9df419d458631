package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pavelanni/realexam/internal/model"
)

// DefaultTesseractLang covers the mixed Chinese and English of exam papers.
const DefaultTesseractLang = "chi_sim+eng"

// Tesseract recognizes page images with the tesseract command.
type Tesseract struct {
	Binary string // defaults to "tesseract"
	Lang   string // defaults to DefaultTesseractLang
}

// Recognize implements Recognizer.
func (t Tesseract) Recognize(ctx context.Context, img model.PageImage) (string, error) {
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	lang := t.Lang
	if lang == "" {
		lang = DefaultTesseractLang
	}

	cmd := exec.CommandContext(ctx, bin, "stdin", "stdout", "-l", lang)
	cmd.Stdin = bytes.NewReader(img.Data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("tesseract page %d: %w", img.PageNr, err)
		}
		return "", fmt.Errorf("tesseract page %d: %w: %s", img.PageNr, err, msg)
	}
	return stdout.String(), nil
}
