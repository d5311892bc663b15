package extract

import (
	"context"
	"log"

	"github.com/freightlens/freight-audit-service/internal/models"
)

// TextExtractor produces the text layer of a document directly, without
// rasterization.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// Recognizer recovers text from a document by rendering its pages and
// running optical character recognition over them.
type Recognizer interface {
	RecognizeText(ctx context.Context, path string) (string, error)
}

// Processor turns one invoice document into ExtractedFields using a hybrid
// strategy: direct text extraction first, recognition fallback when the
// direct text is poor. Extraction faults at any stage are logged and treated
// as empty text so a partially readable invoice still yields whatever fields
// are recoverable.
type Processor struct {
	direct     TextExtractor
	recognizer Recognizer
}

// NewProcessor creates a document processor from its two extraction paths.
func NewProcessor(direct TextExtractor, recognizer Recognizer) *Processor {
	return &Processor{
		direct:     direct,
		recognizer: recognizer,
	}
}

// ProcessInvoice extracts structured fields from the document at path. It
// never returns an error for unreadable or garbled content; the result
// degrades to all-absent fields instead.
func (p *Processor) ProcessInvoice(ctx context.Context, path string) models.ExtractedFields {
	log.Printf("Processing invoice: %s", path)

	text, err := p.direct.ExtractText(path)
	if err != nil {
		log.Printf("Direct text extraction failed: %v", err)
		text = ""
	}

	if TextQualityPoor(text) {
		log.Printf("Poor text quality detected, falling back to OCR")
		recovered, err := p.recognizer.RecognizeText(ctx, path)
		if err != nil {
			log.Printf("OCR extraction failed: %v", err)
			recovered = ""
		}
		text = recovered
	}

	fields := ExtractFields(text)
	log.Printf("Extraction complete: carrier=%q invoice=%q date=%q charge=%v ref=%q",
		fields.CarrierName, fields.InvoiceNumber, fields.InvoiceDate,
		fields.TotalCharge, fields.ShipmentReference)
	return fields
}
