package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFTextExtractor reads the embedded text layer of a PDF, all pages
// concatenated in order. It recovers nothing from scanned documents; those
// fall through to the recognition fallback via the quality check.
type PDFTextExtractor struct{}

// ExtractText returns the document's full text layer.
func (PDFTextExtractor) ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read text layer: %w", err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read text layer: %w", err)
	}

	return buf.String(), nil
}
