package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pavelanni/realexam/internal/model"
)

// PDFCPURasterizer returns the largest image embedded in a page. Scanned exam
// papers carry one image per page, which is what OCR needs. Pages drawn only
// with vector operators yield an error.
type PDFCPURasterizer struct {
	mu   sync.Mutex
	path string
	ctx  *pdfmodel.Context
}

// PageImage implements Rasterizer.
func (r *PDFCPURasterizer) PageImage(ctx context.Context, path string, page int) (model.PageImage, error) {
	if err := ctx.Err(); err != nil {
		return model.PageImage{}, err
	}
	pdfCtx, err := r.context(path)
	if err != nil {
		return model.PageImage{}, err
	}

	r.mu.Lock()
	images, err := pdfcpu.ExtractPageImages(pdfCtx, page, false)
	r.mu.Unlock()
	if err != nil {
		return model.PageImage{}, fmt.Errorf("extract images from page %d: %w", page, err)
	}

	var best *pdfmodel.Image
	for _, img := range images {
		img := img
		if best == nil || img.Width*img.Height > best.Width*best.Height {
			best = &img
		}
	}
	if best == nil {
		return model.PageImage{}, fmt.Errorf("page %d has no embedded image", page)
	}
	data, err := io.ReadAll(best)
	if err != nil {
		return model.PageImage{}, fmt.Errorf("read image on page %d: %w", page, err)
	}
	return model.PageImage{PageNr: page, MIME: mimeType(best.FileType), Data: data}, nil
}

// context keeps the last document open since pages are requested in order.
func (r *PDFCPURasterizer) context(path string) (*pdfmodel.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil && r.path == path {
		return r.ctx, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	r.path, r.ctx = path, pdfCtx
	return pdfCtx, nil
}

func mimeType(fileType string) string {
	switch fileType {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tif", "tiff":
		return "image/tiff"
	case "jp2":
		return "image/jp2"
	default:
		return "application/octet-stream"
	}
}
