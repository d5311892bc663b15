package ocr

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// PageRenderer rasterizes document pages for recognition. Scanned freight
// invoices carry no text layer, so every page is rendered at a DPI high
// enough for Tesseract to resolve small print.
type PageRenderer struct {
	dpi float64
}

// NewPageRenderer creates a renderer. A dpi of 0 or less uses 300, the
// standard density for OCR work.
func NewPageRenderer(dpi float64) *PageRenderer {
	if dpi <= 0 {
		dpi = 300
	}
	return &PageRenderer{dpi: dpi}
}

// RenderPages rasterizes every page of the document at path, in page order.
func (r *PageRenderer) RenderPages(path string) ([]image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document for rendering: %w", err)
	}
	defer doc.Close()

	pages := make([]image.Image, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, r.dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", n+1, err)
		}
		pages = append(pages, img)
	}

	return pages, nil
}
