package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Contract struct {
	ID                  uuid.UUID       `json:"id"`
	CarrierName         string          `json:"carrier_name"`
	MaxRatePerMile      decimal.Decimal `json:"max_rate_per_mile"`
	AllowedAccessorials []string        `json:"allowed_accessorials"`
	MinStringSimilarity float64         `json:"min_string_similarity"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           *time.Time      `json:"updated_at,omitempty"`
}

func SaveContract(ctx context.Context, c *Contract) error {
	query := `
		INSERT INTO contracts (
			carrier_name, max_rate_per_mile, allowed_accessorials, min_string_similarity
		) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := Pool.QueryRow(ctx, query,
		c.CarrierName, c.MaxRatePerMile, c.AllowedAccessorials, c.MinStringSimilarity,
	).Scan(&c.ID, &c.CreatedAt)

	return err
}

func GetContracts(ctx context.Context) ([]Contract, error) {
	query := `
		SELECT id, COALESCE(carrier_name, ''), COALESCE(max_rate_per_mile, 0),
		       COALESCE(allowed_accessorials, '{}'), COALESCE(min_string_similarity, 0.8),
		       created_at
		FROM contracts
		ORDER BY carrier_name
	`

	rows, err := Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		var c Contract
		err := rows.Scan(
			&c.ID, &c.CarrierName, &c.MaxRatePerMile,
			&c.AllowedAccessorials, &c.MinStringSimilarity, &c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}

	return contracts, nil
}

// GetContractByCarrier looks up the rate agreement for a carrier by its
// normalized name.
func GetContractByCarrier(ctx context.Context, carrierName string) (*Contract, error) {
	query := `
		SELECT id, COALESCE(carrier_name, ''), COALESCE(max_rate_per_mile, 0),
		       COALESCE(allowed_accessorials, '{}'), COALESCE(min_string_similarity, 0.8),
		       created_at, updated_at
		FROM contracts
		WHERE UPPER(carrier_name) = UPPER($1)
	`

	var c Contract
	err := Pool.QueryRow(ctx, query, carrierName).Scan(
		&c.ID, &c.CarrierName, &c.MaxRatePerMile,
		&c.AllowedAccessorials, &c.MinStringSimilarity, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteContract removes a rate agreement
func DeleteContract(ctx context.Context, contractID string) error {
	_, err := Pool.Exec(ctx, "DELETE FROM contracts WHERE id = $1", contractID)
	return err
}
