package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text in a preprocessed page image.
type Engine interface {
	Recognize(imageBytes []byte) (string, error)
}

// TesseractEngine runs Tesseract through its C API. A fresh client is
// created per call because gosseract clients are not safe for concurrent
// use across worker goroutines.
type TesseractEngine struct {
	language string
}

// NewTesseractEngine creates a Tesseract-backed engine. An empty language
// defaults to English.
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language}
}

// Recognize performs OCR on PNG-encoded image bytes.
func (t *TesseractEngine) Recognize(imageBytes []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return "", fmt.Errorf("failed to load page image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
