package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/freightlens/freight-audit-service/api"
	"github.com/freightlens/freight-audit-service/internal/auth"
	"github.com/freightlens/freight-audit-service/internal/db"
	"github.com/freightlens/freight-audit-service/internal/extract"
	"github.com/freightlens/freight-audit-service/internal/models"
	"github.com/freightlens/freight-audit-service/internal/ocr"
	"github.com/freightlens/freight-audit-service/internal/storage"
)

func main() {
	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Println("JWT authentication initialized")

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running in stateless mode (no persistence)")
	} else {
		defer db.Close()
		log.Println("Database connection pool initialized")
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Documents will not be archived")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Wire the extraction pipeline
	renderer := ocr.NewPageRenderer(config.OCR.DPI)
	recognizer := ocr.NewRecognizer(
		renderer,
		ocr.NewPreprocessor(),
		ocr.NewTesseractEngine(config.OCR.Language),
		config.OCR.Workers,
	)
	processor := extract.NewProcessor(extract.PDFTextExtractor{}, recognizer)

	// Create API handler
	handler := api.NewHandler(config, processor)
	router := handler.SetupRoutes()

	// Add login endpoint
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// Wrap router with JWT middleware (skips /health and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting Freight Audit Service v%s on %s", api.Version, addr)
	log.Printf("OCR: language=%s dpi=%.0f workers=%d", config.OCR.Language, config.OCR.DPI, config.OCR.Workers)
	log.Printf("Database: %v", db.Pool != nil)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login             - Authenticate", addr)
	log.Printf("  POST http://%s/api/invoice/extract   - Extract fields from a PDF (requires JWT)", addr)
	log.Printf("  POST http://%s/api/invoice/audit     - Audit extracted fields (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/invoices          - List stored invoices (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/contracts         - List rate agreements (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/audit-results     - List audit runs (requires JWT)", addr)
	log.Printf("  GET  http://%s/health                - Health check", addr)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var config models.Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if language := os.Getenv("OCR_LANGUAGE"); language != "" {
		config.OCR.Language = language
	}
	if workers := os.Getenv("OCR_WORKERS"); workers != "" {
		fmt.Sscanf(workers, "%d", &config.OCR.Workers)
	}

	// Fill in defaults
	if config.Host == "" {
		config.Host = "0.0.0.0"
	}
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.OCR.Language == "" {
		config.OCR.Language = "eng"
	}
	if config.OCR.DPI <= 0 {
		config.OCR.DPI = 300
	}
	if config.OCR.Workers <= 0 {
		config.OCR.Workers = 4
	}

	return &config, nil
}
