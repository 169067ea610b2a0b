// Package aggregator folds disposal matches into per-year summaries and the
// cumulative P&L series the dashboard charts. Like the matcher it is pure:
// same matches in, same summary out.
package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborfin/taxlot/internal/models"
)

// Estimator turns net short/long-term amounts into an estimated tax figure.
// The bracket schedule in internal/tax is the production implementation.
type Estimator interface {
	Estimate(year int, shortNet, longNet decimal.Decimal) (decimal.Decimal, error)
}

// Summarize rolls the matches whose disposal date falls in taxYear into a
// Summary. Gains and losses are accumulated as separate non-negative
// magnitudes per term; a loss is a negative GainLoss bucketed by absolute
// value.
func Summarize(matches []models.DisposalMatch, taxYear int, method models.TaxMethod, estimator Estimator) (*models.Summary, error) {
	summary := &models.Summary{
		TaxYear:         taxYear,
		Method:          method,
		ShortTermGains:  decimal.Zero,
		ShortTermLosses: decimal.Zero,
		LongTermGains:   decimal.Zero,
		LongTermLosses:  decimal.Zero,
	}

	seen := make(map[string]bool)
	for _, m := range matches {
		if m.DisposalDate.Year() != taxYear {
			continue
		}
		if !seen[m.DisposalTransactionID] {
			seen[m.DisposalTransactionID] = true
			summary.TransactionCount++
		}

		switch {
		case m.TermType == models.TermShort && !m.GainLoss.IsNegative():
			summary.ShortTermGains = summary.ShortTermGains.Add(m.GainLoss)
		case m.TermType == models.TermShort:
			summary.ShortTermLosses = summary.ShortTermLosses.Add(m.GainLoss.Abs())
		case !m.GainLoss.IsNegative():
			summary.LongTermGains = summary.LongTermGains.Add(m.GainLoss)
		default:
			summary.LongTermLosses = summary.LongTermLosses.Add(m.GainLoss.Abs())
		}
	}

	summary.TotalGains = summary.ShortTermGains.Add(summary.LongTermGains)
	summary.TotalLosses = summary.ShortTermLosses.Add(summary.LongTermLosses)
	summary.NetGainLoss = summary.TotalGains.Sub(summary.TotalLosses)

	if estimator != nil {
		shortNet := summary.ShortTermGains.Sub(summary.ShortTermLosses)
		longNet := summary.LongTermGains.Sub(summary.LongTermLosses)
		estimated, err := estimator.Estimate(taxYear, shortNet, longNet)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate tax: %w", err)
		}
		summary.EstimatedTax = estimated
	}

	return summary, nil
}

// History walks the year's matches in disposal-date order and emits one point
// per day with that day's realized P&L and the running cumulative total.
// Input order is preserved for same-day matches, so a deterministic input
// yields a byte-identical series.
func History(matches []models.DisposalMatch, taxYear int, method models.TaxMethod) *models.PnLHistory {
	inYear := make([]models.DisposalMatch, 0, len(matches))
	for _, m := range matches {
		if m.DisposalDate.Year() == taxYear {
			inYear = append(inYear, m)
		}
	}
	sort.SliceStable(inYear, func(i, j int) bool {
		return inYear[i].DisposalDate.Before(inYear[j].DisposalDate)
	})

	history := &models.PnLHistory{
		DataPoints: []models.PnLPoint{},
		TotalPnL:   decimal.Zero,
		TaxYear:    taxYear,
		Method:     method,
	}

	cumulative := decimal.Zero
	for _, m := range inYear {
		day := m.DisposalDate.UTC().Truncate(24 * time.Hour)
		cumulative = cumulative.Add(m.GainLoss)

		n := len(history.DataPoints)
		if n > 0 && history.DataPoints[n-1].Date.Equal(day) {
			history.DataPoints[n-1].PnL = history.DataPoints[n-1].PnL.Add(m.GainLoss)
			history.DataPoints[n-1].CumulativePnL = cumulative
		} else {
			history.DataPoints = append(history.DataPoints, models.PnLPoint{
				Date:          day,
				PnL:           m.GainLoss,
				CumulativePnL: cumulative,
			})
		}
	}

	history.TotalPnL = cumulative
	if len(history.DataPoints) > 0 {
		start := history.DataPoints[0].Date
		end := history.DataPoints[len(history.DataPoints)-1].Date
		history.StartDate = &start
		history.EndDate = &end
	}
	return history
}
