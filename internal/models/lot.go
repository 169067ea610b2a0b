package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TermType classifies a disposal match by holding period.
type TermType string

const (
	TermShort TermType = "short"
	TermLong  TermType = "long"
)

// Lot is a quantity of an asset acquired at a specific cost basis and date,
// tracked until fully disposed. One acquisition opens exactly one lot, so the
// lot ID equals the acquisition transaction ID. Lots are matcher-internal
// state; they are never persisted.
type Lot struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	Asset               string          `json:"asset"`
	OpenedAt            time.Time       `json:"opened_at"`
	Sequence            int64           `json:"sequence"`
	OriginalQuantity    decimal.Decimal `json:"original_quantity"`
	QuantityRemaining   decimal.Decimal `json:"quantity_remaining"`
	CostBasisPerUnit    decimal.Decimal `json:"cost_basis_per_unit"`
	SourceTransactionID string          `json:"source_transaction_id"`
}

// DisposalMatch records one lot consumption by one disposal. A disposal
// spanning several lots produces several matches; a lot consumed by several
// disposals is referenced by several matches.
type DisposalMatch struct {
	LotID                 string          `json:"lot_id"`
	DisposalTransactionID string          `json:"disposal_transaction_id"`
	Asset                 string          `json:"asset"`
	DisposalDate          time.Time       `json:"disposal_date"`
	Sequence              int64           `json:"sequence"`
	QuantityMatched       decimal.Decimal `json:"quantity_matched"`
	ProceedsUSD           decimal.Decimal `json:"proceeds_usd"`
	CostBasisUSD          decimal.Decimal `json:"cost_basis_usd"`
	GainLoss              decimal.Decimal `json:"gain_loss"`
	HoldingPeriodDays     int             `json:"holding_period_days"`
	TermType              TermType        `json:"term_type"`
}

// LotSelection pins a SpecificID disposal to a lot. Stored per disposal
// transaction; Quantity is how much of the disposal to take from LotID.
type LotSelection struct {
	ID                    string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	UserID                string          `json:"user_id" gorm:"column:user_id;type:varchar(255);not null;index"`
	DisposalTransactionID string          `json:"disposal_transaction_id" gorm:"column:disposal_transaction_id;type:varchar(255);not null;index"`
	LotID                 string          `json:"lot_id" gorm:"column:lot_id;type:varchar(255);not null"`
	Quantity              decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(30,18);not null"`
	CreatedAt             time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the LotSelection model
func (LotSelection) TableName() string {
	return "lot_selections"
}

// MatchWarning is a non-fatal data-quality finding from a match run. The
// affected transaction is excluded from results instead of failing the run.
type MatchWarning struct {
	TransactionID string `json:"transaction_id"`
	Asset         string `json:"asset"`
	Code          string `json:"code"`
	Message       string `json:"message"`
}

// Warning codes emitted by the matcher.
const (
	WarnUnpricedAcquisition = "unpriced_acquisition"
	WarnUnpricedDisposal    = "unpriced_disposal"
	WarnInsufficientLots    = "insufficient_lots"
	WarnLotNotFound         = "lot_not_found"
)
