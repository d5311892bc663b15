package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/freightlens/freight-audit-service/internal/audit"
	"github.com/freightlens/freight-audit-service/internal/auth"
	"github.com/freightlens/freight-audit-service/internal/db"
	"github.com/freightlens/freight-audit-service/internal/models"
	"github.com/freightlens/freight-audit-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.2.0"
)

// InvoiceProcessor extracts structured fields from an invoice document.
type InvoiceProcessor interface {
	ProcessInvoice(ctx context.Context, path string) models.ExtractedFields
}

// Handler handles HTTP requests for invoice extraction and auditing
type Handler struct {
	config    *models.Config
	processor InvoiceProcessor
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, processor InvoiceProcessor) *Handler {
	return &Handler{
		config:    config,
		processor: processor,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Pipeline endpoints
	router.HandleFunc("/api/invoice/extract", h.ExtractInvoice).Methods("POST")
	router.HandleFunc("/api/invoice/audit", h.AuditInvoice).Methods("POST")

	// Invoice CRUD
	router.HandleFunc("/api/invoices", h.GetInvoices).Methods("GET")
	router.HandleFunc("/api/invoice/{id}", h.GetInvoice).Methods("GET")
	router.HandleFunc("/api/invoice/{id}", h.UpdateInvoice).Methods("PUT")
	router.HandleFunc("/api/invoice/{id}", h.DeleteInvoice).Methods("DELETE")

	// Contract rules
	router.HandleFunc("/api/contracts", h.GetContracts).Methods("GET")
	router.HandleFunc("/api/contracts", h.CreateContract).Methods("POST")
	router.HandleFunc("/api/contract/{id}", h.DeleteContract).Methods("DELETE")

	// Audit history
	router.HandleFunc("/api/audit-results", h.GetAuditResults).Methods("GET")
	router.HandleFunc("/api/audit-log", h.GetAuditLog).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Memory    MemoryStats   `json:"memory"`
	Tesseract ServiceStatus `json:"tesseract"`
	Database  ServiceStatus `json:"database"`
	Storage   ServiceStatus `json:"storage"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := h.checkTesseract()
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract: tesseractStatus,
		Database:  databaseStatus,
		Storage:   storageStatus,
	}

	// Extraction degrades without OCR; the audit endpoint still works
	if !tesseractStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkTesseract verifies Tesseract OCR is available
func (h *Handler) checkTesseract() ServiceStatus {
	cmd := exec.Command("tesseract", "--version")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     "tesseract not found or not executable",
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// ExtractResponse is the extraction endpoint's response body
type ExtractResponse struct {
	Success       bool                   `json:"success"`
	Fields        models.ExtractedFields `json:"fields"`
	FileURL       string                 `json:"file_url,omitempty"`
	InvoiceID     string                 `json:"invoice_id,omitempty"`
	SavedToDB     bool                   `json:"saved_to_db"`
	TotalDuration float64                `json:"total_duration"`
	Error         string                 `json:"error,omitempty"`
}

// ExtractInvoice accepts a PDF upload, runs the extraction pipeline and
// returns the recovered fields. Persistence and archival are best-effort:
// a missing database or object store never fails the extraction itself.
func (h *Handler) ExtractInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	started := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' field)")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	if contentType != "application/pdf" {
		h.sendError(w, http.StatusUnsupportedMediaType, "Only PDF documents are accepted")
		return
	}

	documentData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	// The extraction libraries work on paths, so spool to a temp file
	tmpFile, err := os.CreateTemp("", "invoice-*.pdf")
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to create temp file")
		return
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(documentData); err != nil {
		tmpFile.Close()
		h.sendError(w, http.StatusInternalServerError, "Failed to write temp file")
		return
	}
	tmpFile.Close()

	fields := h.processor.ProcessInvoice(ctx, tmpPath)

	// Archive the original document (if storage configured)
	var fileURL string
	if storage.Client != nil {
		filename := fmt.Sprintf("%s_%s%s",
			time.Now().Format("20060102_150405"),
			uuid.New().String()[:8],
			storage.GetFileExtension(contentType),
		)
		fileURL, err = storage.UploadInvoiceDocument(
			ctx, filename,
			bytes.NewReader(documentData),
			int64(len(documentData)),
			contentType,
		)
		if err != nil {
			fmt.Printf("Warning: failed to archive document to MinIO: %v\n", err)
			fileURL = ""
		}
	}

	response := ExtractResponse{
		Success:       true,
		Fields:        fields,
		FileURL:       fileURL,
		TotalDuration: time.Since(started).Seconds(),
	}

	// Persist the invoice (if database configured)
	if db.Pool != nil {
		inv := &db.Invoice{
			CarrierName:       fields.CarrierName,
			InvoiceNumber:     fields.InvoiceNumber,
			InvoiceDate:       fields.InvoiceDate,
			ShipmentReference: fields.ShipmentReference,
			FileURL:           fileURL,
			Status:            "extracted",
		}
		if fields.TotalCharge != nil {
			inv.TotalCharge.Decimal = *fields.TotalCharge
			inv.TotalCharge.Valid = true
		}

		if err := db.SaveInvoice(ctx, inv); err != nil {
			fmt.Printf("Warning: failed to save invoice to DB: %v\n", err)
		} else {
			response.InvoiceID = inv.ID.String()
			response.SavedToDB = true
			h.logAction(ctx, "invoice.extract",
				fmt.Sprintf("extracted %s (%s)", inv.InvoiceNumber, filepath.Base(header.Filename)))
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// AuditRequest is the audit endpoint's request body. Rules are optional;
// when omitted the configured default contract applies.
type AuditRequest struct {
	Invoice  models.ExtractedFields   `json:"invoice"`
	Shipment models.ShipmentReference `json:"shipment"`
	Rules    *models.ContractRules    `json:"rules,omitempty"`
	// InvoiceID ties the stored audit result back to a persisted invoice
	InvoiceID string `json:"invoice_id,omitempty"`
}

// AuditResponse is the audit endpoint's response body
type AuditResponse struct {
	Success      bool             `json:"success"`
	AnomalyCount int              `json:"anomaly_count"`
	Anomalies    []models.Anomaly `json:"anomalies"`
	SavedToDB    bool             `json:"saved_to_db"`
}

// AuditInvoice validates extracted invoice fields against a shipment record
// and contract rules, returning every anomaly found.
func (h *Handler) AuditInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rules := h.config.DefaultContract
	if req.Rules != nil {
		rules = *req.Rules
	} else if db.Pool != nil && req.Invoice.CarrierName != "" {
		// Prefer a stored contract for this carrier over the configured default
		if contract, err := db.GetContractByCarrier(ctx, req.Invoice.CarrierName); err == nil {
			rules = models.ContractRules{
				CarrierName:         contract.CarrierName,
				MaxRatePerMile:      contract.MaxRatePerMile,
				AllowedAccessorials: contract.AllowedAccessorials,
				MinStringSimilarity: contract.MinStringSimilarity,
			}
		}
	}

	engine := audit.NewEngine(rules)
	anomalies := engine.Audit(req.Invoice, req.Shipment)

	response := AuditResponse{
		Success:      true,
		AnomalyCount: len(anomalies),
		Anomalies:    anomalies,
	}

	if db.Pool != nil {
		res := &db.AuditResult{
			AnomalyCount: len(anomalies),
			Anomalies:    anomalies,
		}
		if req.InvoiceID != "" {
			if id, err := uuid.Parse(req.InvoiceID); err == nil {
				res.InvoiceID = &id
			}
		}
		if err := db.SaveAuditResult(ctx, res); err != nil {
			fmt.Printf("Warning: failed to save audit result to DB: %v\n", err)
		} else {
			response.SavedToDB = true
			h.logAction(ctx, "invoice.audit",
				fmt.Sprintf("audited carrier %q: %d anomalies", req.Invoice.CarrierName, len(anomalies)))
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// GetInvoices returns the most recent stored invoices
func (h *Handler) GetInvoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	invoices, err := db.GetInvoices(ctx, limit)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get invoices: %v", err))
		return
	}

	// Swap stored object paths for presigned URLs
	for i := range invoices {
		if invoices[i].FileURL != "" && storage.Client != nil {
			if presignedURL, err := storage.GetPresignedURL(ctx, invoices[i].FileURL); err == nil {
				invoices[i].FileURL = presignedURL
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// GetInvoice returns a single invoice
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	id := mux.Vars(r)["id"]
	invoice, err := db.GetInvoiceByID(ctx, id)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "invoice not found")
		return
	}

	if invoice.FileURL != "" && storage.Client != nil {
		if presignedURL, err := storage.GetPresignedURL(ctx, invoice.FileURL); err == nil {
			invoice.FileURL = presignedURL
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"invoice": invoice,
	})
}

// UpdateInvoice applies field corrections from a reviewer
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Only reviewer-correctable columns may be touched
	allowed := map[string]bool{
		"carrier_name":       true,
		"invoice_number":     true,
		"invoice_date":       true,
		"total_charge":       true,
		"shipment_reference": true,
		"status":             true,
	}
	filtered := map[string]interface{}{}
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		h.sendError(w, http.StatusBadRequest, "no updatable fields provided")
		return
	}

	id := mux.Vars(r)["id"]
	if err := db.UpdateInvoice(ctx, id, filtered); err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update invoice: %v", err))
		return
	}

	h.logAction(ctx, "invoice.update", fmt.Sprintf("updated invoice %s", id))
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// DeleteInvoice removes a stored invoice and its archived document
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	id := mux.Vars(r)["id"]
	invoice, err := db.GetInvoiceByID(ctx, id)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "invoice not found")
		return
	}

	if err := db.DeleteInvoice(ctx, id); err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete invoice: %v", err))
		return
	}

	if invoice.FileURL != "" && storage.Client != nil {
		if err := storage.DeleteDocument(ctx, invoice.FileURL); err != nil {
			fmt.Printf("Warning: failed to delete archived document: %v\n", err)
		}
	}

	h.logAction(ctx, "invoice.delete", fmt.Sprintf("deleted invoice %s", id))
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// GetContracts lists all stored rate agreements
func (h *Handler) GetContracts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	contracts, err := db.GetContracts(r.Context())
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get contracts: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"contracts": contracts,
		"count":     len(contracts),
	})
}

// CreateContract stores a new rate agreement
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	var contract db.Contract
	if err := json.NewDecoder(r.Body).Decode(&contract); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if contract.CarrierName == "" {
		h.sendError(w, http.StatusBadRequest, "carrier_name is required")
		return
	}
	if contract.MinStringSimilarity <= 0 {
		contract.MinStringSimilarity = audit.DefaultMinSimilarity
	}

	if err := db.SaveContract(ctx, &contract); err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save contract: %v", err))
		return
	}

	h.logAction(ctx, "contract.create", fmt.Sprintf("created contract for %s", contract.CarrierName))
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"contract": contract,
	})
}

// DeleteContract removes a rate agreement
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	id := mux.Vars(r)["id"]
	if err := db.DeleteContract(ctx, id); err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete contract: %v", err))
		return
	}

	h.logAction(ctx, "contract.delete", fmt.Sprintf("deleted contract %s", id))
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// GetAuditResults returns recent audit runs
func (h *Handler) GetAuditResults(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	results, err := db.GetAuditResults(r.Context(), 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get audit results: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"results": results,
		"count":   len(results),
	})
}

// GetAuditLog returns the operational audit trail
func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	entries, err := db.GetAuditLog(r.Context(), 200)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get audit log: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"entries": entries,
		"count":   len(entries),
	})
}

// logAction records an audit-trail entry, attributing it to the
// authenticated user when one is present
func (h *Handler) logAction(ctx context.Context, action, detail string) {
	actor := "anonymous"
	if claims, err := auth.GetClaimsFromContext(ctx); err == nil {
		actor = claims.Email
	}
	if err := db.LogAction(ctx, action, detail, actor); err != nil {
		fmt.Printf("Warning: failed to write audit log: %v\n", err)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
