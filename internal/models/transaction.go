package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types understood by the ledger. Acquisitions add to held
// quantity, disposals reduce it.
const (
	TypeBuy         = "buy"
	TypeSell        = "sell"
	TypeDeposit     = "deposit"
	TypeWithdraw    = "withdraw"
	TypeTransferIn  = "transfer_in"
	TypeTransferOut = "transfer_out"
	TypeIncome      = "income"
	TypeReward      = "reward"
	TypeAirdrop     = "airdrop"
	TypeFee         = "fee"
)

var acquisitionTypes = map[string]bool{
	TypeBuy:        true,
	TypeDeposit:    true,
	TypeTransferIn: true,
	TypeIncome:     true,
	TypeReward:     true,
	TypeAirdrop:    true,
}

var disposalTypes = map[string]bool{
	TypeSell:        true,
	TypeWithdraw:    true,
	TypeTransferOut: true,
	TypeFee:         true,
}

// Transaction represents a single normalized ledger entry for a user.
// Amount is always positive; direction is carried by Type.
type Transaction struct {
	ID       string    `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	UserID   string    `json:"user_id" gorm:"column:user_id;type:varchar(255);not null;index"`
	SourceID string    `json:"source_id" gorm:"column:source_id;type:varchar(255);index"`
	Sequence int64     `json:"sequence" gorm:"column:sequence;not null;index"`
	Date     time.Time `json:"date" gorm:"column:date;not null;index"`
	Type     string    `json:"type" gorm:"column:type;type:varchar(50);not null;index"`
	Asset    string    `json:"asset" gorm:"column:asset;type:varchar(50);not null;index"`

	Amount   decimal.Decimal  `json:"amount" gorm:"column:amount;type:decimal(30,18);not null"`
	ValueUSD *decimal.Decimal `json:"value_usd" gorm:"column:value_usd;type:decimal(30,18)"`
	Fee      decimal.Decimal  `json:"fee" gorm:"column:fee;type:decimal(30,18);not null;default:0"`
	FeeUSD   decimal.Decimal  `json:"fee_usd" gorm:"column:fee_usd;type:decimal(30,18);not null;default:0"`

	Category      string `json:"category" gorm:"column:category;type:varchar(100);index"`
	IsCategorized bool   `json:"is_categorized" gorm:"column:is_categorized;not null;default:false"`
	IsPriced      bool   `json:"is_priced" gorm:"column:is_priced;not null;default:false"`
	NeedsReview   bool   `json:"needs_review" gorm:"column:needs_review;not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// IsAcquisition reports whether the transaction adds to held quantity.
func (t *Transaction) IsAcquisition() bool {
	return acquisitionTypes[t.Type]
}

// IsDisposal reports whether the transaction reduces held quantity.
func (t *Transaction) IsDisposal() bool {
	return disposalTypes[t.Type]
}

// Validate validates the transaction data
func (t *Transaction) Validate() error {
	if t.UserID == "" {
		return errors.New("user_id is required")
	}
	if t.Date.IsZero() {
		return errors.New("date is required")
	}
	if t.Type == "" {
		return errors.New("type is required")
	}
	if !acquisitionTypes[t.Type] && !disposalTypes[t.Type] {
		return errors.New("unknown transaction type: " + t.Type)
	}
	if t.Asset == "" {
		return errors.New("asset is required")
	}
	if !t.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if t.ValueUSD != nil && t.ValueUSD.IsNegative() {
		return errors.New("value_usd must be non-negative")
	}
	if t.Fee.IsNegative() || t.FeeUSD.IsNegative() {
		return errors.New("fees must be non-negative")
	}
	return nil
}

// PreSave normalizes derived flags and validates the transaction.
func (t *Transaction) PreSave() error {
	t.Asset = strings.ToUpper(strings.TrimSpace(t.Asset))
	t.IsPriced = t.ValueUSD != nil
	t.IsCategorized = t.Category != ""
	return t.Validate()
}

// TransactionFilter represents filters for querying transactions
type TransactionFilter struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	Types     []string
	Assets    []string
	SourceID  *string
	Limit     int
	Offset    int
}

// TaxMethod selects the lot-matching policy for disposals.
type TaxMethod string

const (
	MethodFIFO       TaxMethod = "fifo"
	MethodLIFO       TaxMethod = "lifo"
	MethodHIFO       TaxMethod = "hifo"
	MethodSpecificID TaxMethod = "specific_id"
)

// ParseTaxMethod parses a method string; defaults to FIFO for empty input.
func ParseTaxMethod(s string) (TaxMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fifo":
		return MethodFIFO, nil
	case "lifo":
		return MethodLIFO, nil
	case "hifo":
		return MethodHIFO, nil
	case "specific_id", "specificid", "specific-id":
		return MethodSpecificID, nil
	}
	return "", errors.New("unknown tax method: " + s)
}
