package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightlens/freight-audit-service/internal/models"
)

type stubProcessor struct {
	fields models.ExtractedFields
}

func (s stubProcessor) ProcessInvoice(context.Context, string) models.ExtractedFields {
	return s.fields
}

func testConfig() *models.Config {
	return &models.Config{
		Host: "127.0.0.1",
		Port: 8080,
		OCR:  models.OCRConfig{Language: "eng", DPI: 300, Workers: 2},
		DefaultContract: models.ContractRules{
			CarrierName:         "ROADWAY EXPRESS",
			MaxRatePerMile:      decimal.RequireFromString("3.50"),
			AllowedAccessorials: []string{"FUEL SURCHARGE"},
			MinStringSimilarity: 0.8,
		},
	}
}

func newTestHandler(fields models.ExtractedFields) *Handler {
	return NewHandler(testConfig(), stubProcessor{fields: fields})
}

func postAudit(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, AuditResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/invoice/audit", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.SetupRoutes().ServeHTTP(rec, req)

	var resp AuditResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestAuditEndpointFlagsRateOverage(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	// 1857.50 over 450 miles is $4.13/mi against a $3.50 cap. The slightly
	// mangled carrier name still clears the 0.8 similarity threshold.
	body := `{
		"invoice": {"carrier_name": "ROADWAY EXPRES", "total_charge": "1857.50"},
		"shipment": {"mileage": 450}
	}`

	rec, resp := postAudit(t, h, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	require.Equal(t, 1, resp.AnomalyCount)
	assert.Equal(t, models.AnomalyRateOverage, resp.Anomalies[0].Type)
	assert.Equal(t, models.SeverityHigh, resp.Anomalies[0].Severity)
	assert.Contains(t, resp.Anomalies[0].Detail, "4.13")
}

func TestAuditEndpointCleanInvoice(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	body := `{
		"invoice": {"carrier_name": "ROADWAY EXPRESS", "total_charge": 1575.00},
		"shipment": {"mileage": 450}
	}`

	rec, resp := postAudit(t, h, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, resp.AnomalyCount)
	assert.Empty(t, resp.Anomalies)
}

func TestAuditEndpointExplicitRulesOverrideDefault(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	body := `{
		"invoice": {"carrier_name": "FEDEX FREIGHT", "total_charge": "900.00"},
		"shipment": {"mileage": 450},
		"rules": {"carrier_name": "FEDEX FREIGHT", "max_rate_per_mile": "2.00"}
	}`

	rec, resp := postAudit(t, h, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, resp.AnomalyCount, "matches its own contract even though it fails the default one")
}

func TestAuditEndpointMissingFields(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	rec, resp := postAudit(t, h, `{"invoice": {}, "shipment": {}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, resp.AnomalyCount)
	for _, a := range resp.Anomalies {
		assert.Equal(t, models.AnomalyMissingField, a.Type)
		assert.Equal(t, models.SeverityHigh, a.Severity)
	}
}

func TestAuditEndpointRejectsMalformedBody(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	rec, _ := postAudit(t, h, `{"invoice": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestExtractEndpointReturnsProcessorFields(t *testing.T) {
	charge := decimal.RequireFromString("1857.50")
	h := newTestHandler(models.ExtractedFields{
		CarrierName:   "ROADWAY EXPRESS",
		InvoiceNumber: "INV-2024-001",
		TotalCharge:   &charge,
	})

	body, contentType := multipartUpload(t, "file", "invoice.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	req := httptest.NewRequest(http.MethodPost, "/api/invoice/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.SetupRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ROADWAY EXPRESS", resp.Fields.CarrierName)
	assert.Equal(t, "INV-2024-001", resp.Fields.InvoiceNumber)
	assert.False(t, resp.SavedToDB, "no database in test setup")
}

func TestExtractEndpointRejectsNonPDF(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	body, contentType := multipartUpload(t, "file", "invoice.txt", "text/plain", []byte("not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/invoice/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.SetupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestExtractEndpointRequiresFile(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/invoice/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.SetupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpointReportsVersion(t *testing.T) {
	h := newTestHandler(models.ExtractedFields{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.SetupRoutes().ServeHTTP(rec, req)

	// Status depends on whether tesseract is installed on the host; the
	// payload shape does not.
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, Version, resp.Version)
	assert.False(t, resp.Database.Available)
	assert.False(t, resp.Storage.Available)
}
