package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTx is a vendor record fetched from an exchange, before normalization.
// Amount is signed the way the vendor reports it; Asset uses vendor codes.
type RawTx struct {
	Source   string           `json:"source"`
	VendorID string           `json:"vendor_id"`
	Date     time.Time        `json:"date"`
	Type     string           `json:"type"`
	Asset    string           `json:"asset"`
	Amount   decimal.Decimal  `json:"amount"`
	ValueUSD *decimal.Decimal `json:"value_usd"`
	Fee      decimal.Decimal  `json:"fee"`
	FeeUSD   decimal.Decimal  `json:"fee_usd"`
}

// Balance is a spot balance reported by an exchange account.
type Balance struct {
	Source string          `json:"source"`
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// Credentials holds the API key pair for an exchange connection.
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}
