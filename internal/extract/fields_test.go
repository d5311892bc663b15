package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFieldsFromInvoiceText(t *testing.T) {
	sampleText := `
From: ROADWAY EXPRESS INC

Invoice #: INV-2024-12345
Invoice Date: 03/15/2024

PRO #: PRO-98765

Total Amount Due: $1,857.50

Thank you for your business.
`

	fields := ExtractFields(sampleText)

	assert.Contains(t, fields.CarrierName, "ROADWAY EXPRESS")
	assert.Equal(t, "INV-2024-12345", fields.InvoiceNumber)
	assert.Equal(t, "2024-03-15", fields.InvoiceDate)
	require.NotNil(t, fields.TotalCharge)
	assert.Equal(t, "1857.5", fields.TotalCharge.String())
	assert.Equal(t, "PRO-98765", fields.ShipmentReference)
}

func TestExtractFieldsCarrierLabelBeatsHeuristic(t *testing.T) {
	// The "carrier:" label pattern must win over the bare capitalized-phrase
	// heuristic even when both could match.
	text := `
Carrier: FEDEX FREIGHT
Billed by NATIONAL LOGISTICS PARTNERS EXPRESS
Total: $500.00
`
	fields := ExtractFields(text)
	assert.Contains(t, fields.CarrierName, "FEDEX FREIGHT")
}

func TestExtractFieldsMissingFieldsStayAbsent(t *testing.T) {
	fields := ExtractFields("Some random text without any structure at all.")

	assert.Empty(t, fields.CarrierName)
	assert.Empty(t, fields.InvoiceNumber)
	assert.Empty(t, fields.InvoiceDate)
	assert.Nil(t, fields.TotalCharge)
	assert.True(t, fields.Empty())
}

func TestTotalChargeParsing(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Total: $1,234.56", "1234.56"},
		{"Amount Due: 999.99", "999.99"},
		{"Balance: $5,000.00", "5000"},
		{"TOTAL $100", "100"},
	}

	for _, tc := range cases {
		fields := ExtractFields(tc.text)
		require.NotNil(t, fields.TotalCharge, "failed to parse: %s", tc.text)
		assert.Equal(t, tc.want, fields.TotalCharge.String(), "input: %s", tc.text)
	}
}

func TestTotalChargeUnparseableIsAbsent(t *testing.T) {
	assert.Nil(t, parseCharge(",,,"))
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"03/15/2024", "2024-03-15"},
		{"03-15-2024", "2024-03-15"},
		{"3/15/24", "2024-03-15"},
		{"15/03/2024", "2024-03-15"}, // day-first fallback
		{"01/15/2024", "2024-01-15"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeDate(tc.in), "input: %s", tc.in)
	}
}

func TestNormalizeDateUnparseablePassesThrough(t *testing.T) {
	assert.Equal(t, "sometime in March", NormalizeDate("sometime in March"))

	// Already-normalized output round-trips unchanged.
	assert.Equal(t, "2024-03-15", NormalizeDate("2024-03-15"))
}

func TestNormalizeCarrierName(t *testing.T) {
	assert.Equal(t, "ROADWAY EXPRESS INC", normalizeCarrierName("Roadway   Express\n Inc"))
}
