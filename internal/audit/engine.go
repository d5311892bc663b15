package audit

import (
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/freightlens/freight-audit-service/internal/models"
)

// DefaultMinSimilarity is the carrier-name similarity threshold applied when
// the contract does not configure one.
const DefaultMinSimilarity = 0.8

// fallbackMaxRate stands in for max_rate_per_mile in the suspicious-charge
// ceiling when the contract leaves the rate cap unconfigured.
var fallbackMaxRate = decimal.NewFromInt(10)

// Engine validates extracted invoice fields against a reference shipment and
// one contract's rules. It holds read-only configuration only; Audit is
// deterministic and safe to call from multiple goroutines.
//
// Business-rule violations are returned as anomalies, never as errors. A
// check that cannot be evaluated (an unconfigured rate cap, a missing
// optional name) contributes no anomaly at all.
type Engine struct {
	rules         models.ContractRules
	minSimilarity float64
}

// NewEngine creates an audit engine bound to one contract's rules.
func NewEngine(rules models.ContractRules) *Engine {
	minSim := rules.MinStringSimilarity
	if minSim <= 0 {
		minSim = DefaultMinSimilarity
	}
	return &Engine{
		rules:         rules,
		minSimilarity: minSim,
	}
}

// Audit runs the full check battery and returns the findings in a fixed
// order: required-field gate, rate overage, carrier match, additional rules.
// When any required field is absent the gate's MISSING_FIELD anomalies are
// returned alone; the remaining checks assume those fields exist.
func (e *Engine) Audit(invoice models.ExtractedFields, shipment models.ShipmentReference) []models.Anomaly {
	anomalies := []models.Anomaly{}

	if invoice.CarrierName == "" {
		anomalies = append(anomalies, newMissingField("carrier_name", "invoice"))
	}
	if invoice.TotalCharge == nil {
		anomalies = append(anomalies, newMissingField("total_charge", "invoice"))
	}
	if shipment.Mileage == nil {
		anomalies = append(anomalies, newMissingField("mileage", "shipment"))
	}
	if len(anomalies) > 0 {
		return anomalies
	}

	totalCharge := *invoice.TotalCharge
	mileage := *shipment.Mileage

	anomalies = append(anomalies, e.checkRateOverage(totalCharge, mileage)...)
	anomalies = append(anomalies, e.checkCarrierMatch(invoice.CarrierName)...)
	anomalies = append(anomalies, e.checkAdditionalRules(totalCharge, mileage)...)

	log.Printf("Audit complete: found %d anomalies", len(anomalies))
	return anomalies
}

// checkRateOverage flags charges whose per-mile rate strictly exceeds the
// contracted maximum. Equality never flags.
func (e *Engine) checkRateOverage(totalCharge, mileage decimal.Decimal) []models.Anomaly {
	maxRate := e.rules.MaxRatePerMile
	if maxRate.IsZero() {
		// No rate cap on this contract; the check is not evaluable.
		log.Printf("Rate overage check skipped: no max_rate_per_mile configured")
		return nil
	}

	if mileage.Sign() <= 0 {
		return []models.Anomaly{newInvalidData(
			"mileage",
			"Mileage must be greater than zero",
			"> 0",
			mileage.String(),
		)}
	}

	actualRate := totalCharge.Div(mileage)
	if !actualRate.GreaterThan(maxRate) {
		return nil
	}

	expectedCharge := maxRate.Mul(mileage)
	overageAmount := totalCharge.Sub(expectedCharge)
	overagePercent := actualRate.Sub(maxRate).Div(maxRate).Mul(decimal.NewFromInt(100))

	severity := models.SeverityMedium
	if overagePercent.GreaterThan(decimal.NewFromInt(10)) {
		severity = models.SeverityHigh
	}

	return []models.Anomaly{newRateOverage(
		severity,
		fmt.Sprintf("Calculated rate $%s/mi exceeds contracted $%s/mi by $%s (%s%% over)",
			actualRate.StringFixed(2), maxRate.StringFixed(2),
			overageAmount.StringFixed(2), overagePercent.StringFixed(1)),
		expectedCharge.StringFixed(2),
		totalCharge.StringFixed(2),
	)}
}

// checkCarrierMatch compares the invoice carrier against the contracted one
// using fuzzy matching so OCR slips and minor spelling variations pass.
func (e *Engine) checkCarrierMatch(invoiceCarrier string) []models.Anomaly {
	contractCarrier := e.rules.CarrierName
	if invoiceCarrier == "" || contractCarrier == "" {
		return nil
	}

	invoiceNorm := strings.ToUpper(strings.TrimSpace(invoiceCarrier))
	contractNorm := strings.ToUpper(strings.TrimSpace(contractCarrier))

	similarity := Ratio(invoiceNorm, contractNorm)
	if similarity >= e.minSimilarity {
		return nil
	}

	return []models.Anomaly{newCarrierMismatch(
		fmt.Sprintf("Invoice carrier '%s' does not match contracted carrier '%s' (similarity: %.2f%%)",
			invoiceCarrier, contractCarrier, similarity*100),
		contractCarrier,
		invoiceCarrier,
	)}
}

// checkAdditionalRules holds the remaining sanity checks: non-positive
// charges and charges past a 10x ceiling over the contracted maximum.
func (e *Engine) checkAdditionalRules(totalCharge, mileage decimal.Decimal) []models.Anomaly {
	anomalies := []models.Anomaly{}

	if totalCharge.Sign() <= 0 {
		anomalies = append(anomalies, newInvalidCharge(
			fmt.Sprintf("Total charge $%s must be positive", totalCharge.String()),
			totalCharge.String(),
		))
	}

	if !totalCharge.IsZero() && !mileage.IsZero() {
		maxRate := e.rules.MaxRatePerMile
		if maxRate.IsZero() {
			maxRate = fallbackMaxRate
		}
		ceiling := maxRate.Mul(mileage).Mul(decimal.NewFromInt(10))

		if totalCharge.GreaterThan(ceiling) {
			anomalies = append(anomalies, newSuspiciousCharge(
				fmt.Sprintf("Total charge $%s is unusually high (exceeds 10x expected rate)",
					totalCharge.String()),
				fmt.Sprintf("< $%s", ceiling.StringFixed(2)),
				totalCharge.String(),
			))
		}
	}

	return anomalies
}

// Anomaly constructors. Each kind populates only the fields relevant to it,
// keeping the list shape uniform for callers.

func newMissingField(field, record string) models.Anomaly {
	return models.Anomaly{
		Type:     models.AnomalyMissingField,
		Severity: models.SeverityHigh,
		Detail:   fmt.Sprintf("Required %s field '%s' is missing or empty", record, field),
		Field:    field,
		Expected: "non-empty value",
	}
}

func newInvalidData(field, detail, expected, actual string) models.Anomaly {
	return models.Anomaly{
		Type:     models.AnomalyInvalidData,
		Severity: models.SeverityHigh,
		Detail:   detail,
		Field:    field,
		Expected: expected,
		Actual:   actual,
	}
}

func newRateOverage(severity models.Severity, detail, expected, actual string) models.Anomaly {
	return models.Anomaly{
		Type:     models.AnomalyRateOverage,
		Severity: severity,
		Detail:   detail,
		Field:    "total_charge",
		Expected: expected,
		Actual:   actual,
	}
}

func newCarrierMismatch(detail, expected, actual string) models.Anomaly {
	return models.Anomaly{
		Type:     models.AnomalyCarrierMismatch,
		Severity: models.SeverityHigh,
		Detail:   detail,
		Field:    "carrier_name",
		Expected: expected,
		Actual:   actual,
	}
}

func newInvalidCharge(detail, actual string) models.Anomaly {
	return models.Anomaly{
		Type:     models.AnomalyInvalidCharge,
		Severity: models.SeverityHigh,
		Detail:   detail,
		Field:    "total_charge",
		Expected: "> 0",
		Actual:   actual,
	}
}

func newSuspiciousCharge(detail, expected, actual string) models.Anomaly {
	return models.Anomaly{
		Type:     models.AnomalySuspiciousCharge,
		Severity: models.SeverityMedium,
		Detail:   detail,
		Field:    "total_charge",
		Expected: expected,
		Actual:   actual,
	}
}
