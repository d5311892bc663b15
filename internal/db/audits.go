package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/freightlens/freight-audit-service/internal/models"
)

type AuditResult struct {
	ID           uuid.UUID        `json:"id"`
	InvoiceID    *uuid.UUID       `json:"invoice_id,omitempty"`
	AnomalyCount int              `json:"anomaly_count"`
	Anomalies    []models.Anomaly `json:"anomalies"`
	CreatedAt    time.Time        `json:"created_at"`
}

// SaveAuditResult persists one audit run. Anomalies go into a JSONB column
// so the stored detail strings survive schema changes to the anomaly shape.
func SaveAuditResult(ctx context.Context, res *AuditResult) error {
	anomalies, err := json.Marshal(res.Anomalies)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_results (invoice_id, anomaly_count, anomalies)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	return Pool.QueryRow(ctx, query,
		res.InvoiceID, res.AnomalyCount, anomalies,
	).Scan(&res.ID, &res.CreatedAt)
}

func GetAuditResults(ctx context.Context, limit int) ([]AuditResult, error) {
	query := `
		SELECT id, invoice_id, COALESCE(anomaly_count, 0), COALESCE(anomalies, '[]'), created_at
		FROM audit_results
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AuditResult
	for rows.Next() {
		var res AuditResult
		var anomalies []byte
		err := rows.Scan(&res.ID, &res.InvoiceID, &res.AnomalyCount, &anomalies, &res.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(anomalies, &res.Anomalies); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

type AuditLogEntry struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// LogAction records an operational audit-trail entry (uploads, audits,
// deletions). Failures are returned, not fatal; callers log and move on.
func LogAction(ctx context.Context, action, detail, actor string) error {
	query := `
		INSERT INTO audit_logs (action, detail, actor)
		VALUES ($1, $2, $3)
	`
	_, err := Pool.Exec(ctx, query, action, detail, actor)
	return err
}

func GetAuditLog(ctx context.Context, limit int) ([]AuditLogEntry, error) {
	query := `
		SELECT id, COALESCE(action, ''), COALESCE(detail, ''), COALESCE(actor, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditLogEntry
	for rows.Next() {
		var e AuditLogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Detail, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}
