package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID                uuid.UUID           `json:"id"`
	CarrierName       string              `json:"carrier_name"`
	InvoiceNumber     string              `json:"invoice_number"`
	InvoiceDate       string              `json:"invoice_date"`
	TotalCharge       decimal.NullDecimal `json:"total_charge"`
	ShipmentReference string              `json:"shipment_reference"`
	FileURL           string              `json:"file_url"`
	RawText           string              `json:"raw_text,omitempty"`
	Status            string              `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         *time.Time          `json:"updated_at,omitempty"`
}

func SaveInvoice(ctx context.Context, inv *Invoice) error {
	query := `
		INSERT INTO invoices (
			carrier_name, invoice_number, invoice_date, total_charge,
			shipment_reference, file_url, raw_text, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := Pool.QueryRow(ctx, query,
		inv.CarrierName, inv.InvoiceNumber, inv.InvoiceDate, inv.TotalCharge,
		inv.ShipmentReference, inv.FileURL, inv.RawText, inv.Status,
	).Scan(&inv.ID, &inv.CreatedAt)

	return err
}

func GetInvoices(ctx context.Context, limit int) ([]Invoice, error) {
	query := `
		SELECT id, COALESCE(carrier_name, ''), COALESCE(invoice_number, ''),
		       COALESCE(invoice_date, ''), total_charge,
		       COALESCE(shipment_reference, ''), COALESCE(file_url, ''),
		       COALESCE(status, ''), created_at
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		err := rows.Scan(
			&inv.ID, &inv.CarrierName, &inv.InvoiceNumber,
			&inv.InvoiceDate, &inv.TotalCharge,
			&inv.ShipmentReference, &inv.FileURL,
			&inv.Status, &inv.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	return invoices, nil
}

// GetInvoiceByID retrieves a single invoice by ID
func GetInvoiceByID(ctx context.Context, invoiceID string) (*Invoice, error) {
	query := `
		SELECT id, COALESCE(carrier_name, ''), COALESCE(invoice_number, ''),
		       COALESCE(invoice_date, ''), total_charge,
		       COALESCE(shipment_reference, ''), COALESCE(file_url, ''),
		       COALESCE(raw_text, ''), COALESCE(status, ''), created_at, updated_at
		FROM invoices
		WHERE id = $1
	`

	var inv Invoice
	err := Pool.QueryRow(ctx, query, invoiceID).Scan(
		&inv.ID, &inv.CarrierName, &inv.InvoiceNumber,
		&inv.InvoiceDate, &inv.TotalCharge,
		&inv.ShipmentReference, &inv.FileURL,
		&inv.RawText, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// UpdateInvoice updates invoice fields
func UpdateInvoice(ctx context.Context, invoiceID string, updates map[string]interface{}) error {
	// Build dynamic UPDATE query
	sets := []string{}
	args := []interface{}{}
	i := 1
	for key, value := range updates {
		sets = append(sets, fmt.Sprintf("%s = $%d", key, i))
		args = append(args, value)
		i++
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now())
	i++

	args = append(args, invoiceID)

	query := fmt.Sprintf("UPDATE invoices SET %s WHERE id = $%d",
		strings.Join(sets, ", "), i)

	_, err := Pool.Exec(ctx, query, args...)
	return err
}

// DeleteInvoice removes an invoice
func DeleteInvoice(ctx context.Context, invoiceID string) error {
	_, err := Pool.Exec(ctx, "DELETE FROM invoices WHERE id = $1", invoiceID)
	return err
}
