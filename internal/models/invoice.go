package models

import (
	"github.com/shopspring/decimal"
)

// ExtractedFields holds the structured fields recovered from one freight
// invoice document. A nil pointer or empty string means the field is absent;
// values are never mutated after the processor returns them.
type ExtractedFields struct {
	CarrierName       string           `json:"carrier_name,omitempty"`
	InvoiceNumber     string           `json:"invoice_number,omitempty"`
	InvoiceDate       string           `json:"invoice_date,omitempty"` // YYYY-MM-DD, or the raw match when unparseable
	TotalCharge       *decimal.Decimal `json:"total_charge,omitempty"`
	ShipmentReference string           `json:"shipment_reference,omitempty"`
}

// Empty reports whether no field at all was recovered from the document.
func (f ExtractedFields) Empty() bool {
	return f.CarrierName == "" && f.InvoiceNumber == "" && f.InvoiceDate == "" &&
		f.TotalCharge == nil && f.ShipmentReference == ""
}

// ShipmentReference is the caller-supplied shipment record an invoice is
// audited against. Only Mileage is consulted by the audit engine; the rest is
// descriptive and passed through.
type ShipmentReference struct {
	Mileage     *decimal.Decimal `json:"mileage,omitempty"`
	Origin      string           `json:"origin,omitempty"`
	Destination string           `json:"destination,omitempty"`
}

// ContractRules describes the governing contract for one audit call.
// AllowedAccessorials is accepted and stored but not consulted by any check
// yet; it is reserved for accessorial line auditing.
type ContractRules struct {
	CarrierName         string          `json:"carrier_name" yaml:"carrier_name"`
	MaxRatePerMile      decimal.Decimal `json:"max_rate_per_mile" yaml:"max_rate_per_mile"`
	AllowedAccessorials []string        `json:"allowed_accessorials,omitempty" yaml:"allowed_accessorials"`
	MinStringSimilarity float64         `json:"min_string_similarity,omitempty" yaml:"min_string_similarity"`
}

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// OCR config
	OCR OCRConfig `yaml:"ocr"`

	// Contract rules applied by the audit endpoint when a request omits them
	DefaultContract ContractRules `yaml:"default_contract"`
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	Language string  `yaml:"language"` // OCR language (default: "eng")
	DPI      float64 `yaml:"dpi"`      // page render resolution (default: 300)
	Workers  int     `yaml:"workers"`  // per-page OCR concurrency (default: 4)
}
