package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnalysisRecord is one persisted bill analysis. Payload holds the full
// result document as produced by the analysis service.
type AnalysisRecord struct {
	ID           uuid.UUID
	POD          string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	InvoiceTotal decimal.Decimal
	BestSaving   decimal.Decimal
	Payload      json.RawMessage
	CreatedAt    time.Time
}

// AlertRecord captures an emitted savings alert for auditing.
type AlertRecord struct {
	ID           int64
	AnalysisID   uuid.UUID
	POD          string
	SavingEUR    decimal.Decimal
	ThresholdEUR decimal.Decimal
	Channels     []string
	CreatedAt    time.Time
}
