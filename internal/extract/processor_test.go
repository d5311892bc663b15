package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanInvoiceText = `
Carrier: ROADWAY EXPRESS
Invoice #: INV-2024-001
Invoice Date: 01/15/2024
PRO #: PRO-12345
Total: $1,575.00
`

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(string) (string, error) {
	return s.text, s.err
}

type stubRecognizer struct {
	text   string
	err    error
	called bool
}

func (s *stubRecognizer) RecognizeText(context.Context, string) (string, error) {
	s.called = true
	return s.text, s.err
}

func TestProcessorUsesDirectTextWhenGood(t *testing.T) {
	recognizer := &stubRecognizer{}
	p := NewProcessor(stubExtractor{text: cleanInvoiceText}, recognizer)

	fields := p.ProcessInvoice(context.Background(), "invoice.pdf")

	assert.False(t, recognizer.called, "good direct text must not trigger OCR")
	assert.Contains(t, fields.CarrierName, "ROADWAY EXPRESS")
	assert.Equal(t, "INV-2024-001", fields.InvoiceNumber)
	assert.Equal(t, "2024-01-15", fields.InvoiceDate)
	require.NotNil(t, fields.TotalCharge)
	assert.Equal(t, "1575", fields.TotalCharge.String())
}

func TestProcessorFallsBackToOCROnPoorText(t *testing.T) {
	recognizer := &stubRecognizer{text: cleanInvoiceText}
	p := NewProcessor(stubExtractor{text: "∂ƒ˙©"}, recognizer)

	fields := p.ProcessInvoice(context.Background(), "scan.pdf")

	assert.True(t, recognizer.called)
	assert.Contains(t, fields.CarrierName, "ROADWAY EXPRESS")
}

func TestProcessorDegradesToAbsentFields(t *testing.T) {
	// Both paths fail outright; the processor must still return a result.
	recognizer := &stubRecognizer{err: errors.New("tesseract exploded")}
	p := NewProcessor(stubExtractor{err: errors.New("corrupt xref table")}, recognizer)

	fields := p.ProcessInvoice(context.Background(), "broken.pdf")

	assert.True(t, recognizer.called)
	assert.True(t, fields.Empty())
}
