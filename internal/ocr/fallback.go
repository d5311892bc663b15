package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"
)

// PageSource rasterizes a document into per-page images, in page order.
type PageSource interface {
	RenderPages(path string) ([]image.Image, error)
}

// Recognizer recovers the text of a scanned document by rasterizing its
// pages and running each one through preprocessing and OCR. Pages are
// processed on a bounded worker pool; results land in an index-ordered
// slice so the concatenated output preserves page order regardless of
// completion order.
type Recognizer struct {
	renderer     PageSource
	preprocessor *Preprocessor
	engine       Engine
	workers      int
}

// NewRecognizer creates the recognition fallback. A worker count of 0 or
// less uses a single worker.
func NewRecognizer(renderer PageSource, preprocessor *Preprocessor, engine Engine, workers int) *Recognizer {
	if workers <= 0 {
		workers = 1
	}
	return &Recognizer{
		renderer:     renderer,
		preprocessor: preprocessor,
		engine:       engine,
		workers:      workers,
	}
}

// RecognizeText OCRs every page of the document at path and concatenates
// the page texts, each followed by a newline. A page that fails to
// preprocess or recognize contributes empty text rather than failing the
// whole document.
func (r *Recognizer) RecognizeText(ctx context.Context, path string) (string, error) {
	pages, err := r.renderer.RenderPages(path)
	if err != nil {
		return "", fmt.Errorf("failed to rasterize document: %w", err)
	}
	log.Printf("OCR fallback: processing %d pages with %d workers", len(pages), r.workers)

	texts := make([]string, len(pages))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i, page := range pages {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, page image.Image) {
			defer wg.Done()
			defer func() { <-sem }()
			texts[i] = r.recognizePage(i, page)
		}(i, page)
	}
	wg.Wait()

	var sb strings.Builder
	for _, text := range texts {
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (r *Recognizer) recognizePage(index int, page image.Image) string {
	prepared, err := r.preprocessor.Prepare(page)
	if err != nil {
		log.Printf("Preprocessing failed on page %d: %v", index+1, err)
		return ""
	}

	text, err := r.engine.Recognize(prepared)
	if err != nil {
		log.Printf("OCR failed on page %d: %v", index+1, err)
		return ""
	}
	return text
}
