package models

// AnomalyType identifies the business rule an invoice violated.
type AnomalyType string

const (
	AnomalyMissingField     AnomalyType = "MISSING_FIELD"
	AnomalyInvalidData      AnomalyType = "INVALID_DATA"
	AnomalyRateOverage      AnomalyType = "RATE_OVERAGE"
	AnomalyCarrierMismatch  AnomalyType = "CARRIER_MISMATCH"
	AnomalyInvalidCharge    AnomalyType = "INVALID_CHARGE"
	AnomalySuspiciousCharge AnomalyType = "SUSPICIOUS_CHARGE"
)

// Severity ranks how urgently an anomaly needs auditor attention.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Anomaly is a single audit finding. Violations are data, not errors: the
// audit engine reports them in a list and never fails a call over them.
// Expected and Actual carry either a fixed-point amount or a short
// description of the acceptable range, depending on the anomaly type.
type Anomaly struct {
	Type     AnomalyType `json:"type"`
	Severity Severity    `json:"severity"`
	Detail   string      `json:"detail"`
	Field    string      `json:"field"`
	Expected string      `json:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty"`
}
