package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the realized gain/loss rollup for a (user, tax year, method)
// key. It is a fold over disposal matches, recomputed on demand and never
// persisted. Gains and losses are kept as separate non-negative magnitudes.
type Summary struct {
	TaxYear          int             `json:"tax_year"`
	Method           TaxMethod       `json:"method"`
	ShortTermGains   decimal.Decimal `json:"short_term_gains"`
	ShortTermLosses  decimal.Decimal `json:"short_term_losses"`
	LongTermGains    decimal.Decimal `json:"long_term_gains"`
	LongTermLosses   decimal.Decimal `json:"long_term_losses"`
	TotalGains       decimal.Decimal `json:"total_gains"`
	TotalLosses      decimal.Decimal `json:"total_losses"`
	NetGainLoss      decimal.Decimal `json:"net_gain_loss"`
	EstimatedTax     decimal.Decimal `json:"estimated_tax"`
	TransactionCount int             `json:"transaction_count"`
	Warnings         []MatchWarning  `json:"warnings"`
}

// PnLPoint is one day of realized P&L for dashboard charting.
type PnLPoint struct {
	Date          time.Time       `json:"date"`
	PnL           decimal.Decimal `json:"pnl"`
	CumulativePnL decimal.Decimal `json:"cumulative_pnl"`
}

// PnLHistory is the cumulative realized P&L time series for a tax year.
type PnLHistory struct {
	DataPoints []PnLPoint      `json:"data_points"`
	TotalPnL   decimal.Decimal `json:"total_pnl"`
	StartDate  *time.Time      `json:"start_date"`
	EndDate    *time.Time      `json:"end_date"`
	TaxYear    int             `json:"tax_year"`
	Method     TaxMethod       `json:"method"`
	Warnings   []MatchWarning  `json:"warnings"`
}
