package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freightlens/freight-audit-service/internal/models"
)

// fieldRule binds one target field to its ordered pattern list and its
// normalizer. Patterns run most-specific first and the first match wins;
// the ordering is load-bearing — a looser pattern placed earlier would mask
// the precise one and produce false positives.
type fieldRule struct {
	patterns []*regexp.Regexp
	assign   func(f *models.ExtractedFields, raw string)
}

var fieldRules = []fieldRule{
	{
		// carrier_name
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)carrier[:\s]+([A-Z][A-Z\s&]+(?:EXPRESS|FREIGHT|LOGISTICS|LINES|INC|LLC)?)`),
			regexp.MustCompile(`(?im)from[:\s]+([A-Z][A-Z\s&]+(?:EXPRESS|FREIGHT|LOGISTICS|LINES|INC|LLC)?)`),
			regexp.MustCompile(`(?im)([A-Z][A-Z\s&]{10,}(?:EXPRESS|FREIGHT|LOGISTICS|LINES))`),
		},
		assign: func(f *models.ExtractedFields, raw string) {
			f.CarrierName = normalizeCarrierName(raw)
		},
	},
	{
		// invoice_number
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)invoice\s*#?[:\s]*([A-Z0-9\-]+)`),
			regexp.MustCompile(`(?im)inv(?:oice)?\.?\s*#?[:\s]*([A-Z0-9\-]+)`),
		},
		assign: func(f *models.ExtractedFields, raw string) {
			f.InvoiceNumber = raw
		},
	},
	{
		// invoice_date
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)invoice\s*date[:\s]+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`),
			regexp.MustCompile(`(?im)date[:\s]+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`),
			regexp.MustCompile(`(?im)(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`),
		},
		assign: func(f *models.ExtractedFields, raw string) {
			f.InvoiceDate = NormalizeDate(raw)
		},
	},
	{
		// total_charge
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)total[:\s]+\$?\s*([\d,]+\.?\d{0,2})`),
			regexp.MustCompile(`(?im)amount\s*due[:\s]+\$?\s*([\d,]+\.?\d{0,2})`),
			regexp.MustCompile(`(?im)balance[:\s]+\$?\s*([\d,]+\.?\d{0,2})`),
		},
		assign: func(f *models.ExtractedFields, raw string) {
			f.TotalCharge = parseCharge(raw)
		},
	},
	{
		// shipment_reference
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)pro\s*#?[:\s]*([A-Z0-9\-]+)`),
			regexp.MustCompile(`(?im)ref(?:erence)?[:\s]*([A-Z0-9\-]+)`),
			regexp.MustCompile(`(?im)shipment[:\s]*([A-Z0-9\-]+)`),
		},
		assign: func(f *models.ExtractedFields, raw string) {
			f.ShipmentReference = raw
		},
	},
}

// ExtractFields applies the pattern rule table to raw invoice text. Fields
// whose patterns never match stay absent.
func ExtractFields(text string) models.ExtractedFields {
	var fields models.ExtractedFields

	for _, rule := range fieldRules {
		for _, pattern := range rule.patterns {
			m := pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			rule.assign(&fields, strings.TrimSpace(m[1]))
			break
		}
	}

	return fields
}

// dateLayouts are tried in order; month-first American formats take
// precedence over day-first ones.
var dateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
	"2/1/2006",
	"2-1-2006",
}

// NormalizeDate converts a matched date string to YYYY-MM-DD. A string no
// layout can parse is returned unchanged; a present-but-raw date is more
// useful to auditors than a dropped one.
func NormalizeDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

// parseCharge strips thousands separators and parses a decimal amount.
// Returns nil on failure: an unparseable charge is absent, never zero.
func parseCharge(raw string) *decimal.Decimal {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimSuffix(cleaned, ".") // "$100." scans with a dangling dot
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}

// normalizeCarrierName collapses internal whitespace and upper-cases.
func normalizeCarrierName(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}
