// Package matcher implements tax-lot matching: it consumes an ordered
// transaction stream for one (user, asset) pair, maintains open lots, and
// matches disposals to lots under the selected tax method.
//
// The matcher is pure in-memory computation. It performs no I/O, reads no
// clock, and uses no randomness, so identical input always yields an
// identical match set. Data-quality problems (unpriced acquisitions, missing
// history, bad SpecificID references) are accumulated as warnings and the
// affected transaction is skipped; only contract violations such as an
// unordered input stream return an error.
package matcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/harborfin/taxlot/internal/errors"
	"github.com/harborfin/taxlot/internal/models"
)

// Result is the outcome of one match run.
type Result struct {
	Matches  []models.DisposalMatch
	OpenLots []*models.Lot
	Warnings []models.MatchWarning
}

// Match processes transactions for a single (user, asset) pair in ascending
// (date, sequence) order. selections supplies per-disposal lot picks and is
// only consulted for MethodSpecificID; it maps disposal transaction ID to the
// caller's lot selections.
func Match(userID, asset string, method models.TaxMethod, txs []*models.Transaction, selections map[string][]models.LotSelection) (*Result, error) {
	if err := checkOrdering(userID, asset, txs); err != nil {
		return nil, err
	}

	st := &state{
		method:     method,
		selections: selections,
	}

	for _, tx := range txs {
		switch {
		case tx.IsAcquisition():
			st.acquire(tx)
		case tx.IsDisposal():
			st.dispose(tx)
		}
	}

	return &Result{
		Matches:  st.matches,
		OpenLots: st.openLots(),
		Warnings: st.warnings,
	}, nil
}

type state struct {
	method     models.TaxMethod
	selections map[string][]models.LotSelection

	// lots in acquisition order; exhausted lots stay so SpecificID
	// references resolve to a precise error
	lots     []*models.Lot
	byID     map[string]*models.Lot
	matches  []models.DisposalMatch
	warnings []models.MatchWarning
	seq      int64
}

func (st *state) warn(tx *models.Transaction, code string, err error) {
	st.warnings = append(st.warnings, models.MatchWarning{
		TransactionID: tx.ID,
		Asset:         tx.Asset,
		Code:          code,
		Message:       err.Error(),
	})
}

// acquire opens one lot per priced acquisition. Lot ID equals the acquisition
// transaction ID, which keeps runs reproducible and gives SpecificID callers
// a stable handle.
func (st *state) acquire(tx *models.Transaction) {
	if tx.ValueUSD == nil {
		st.warn(tx, models.WarnUnpricedAcquisition, &apperrors.UnpricedAcquisitionError{
			TransactionID: tx.ID,
			Asset:         tx.Asset,
		})
		return
	}

	lot := &models.Lot{
		ID:                  tx.ID,
		UserID:              tx.UserID,
		Asset:               tx.Asset,
		OpenedAt:            tx.Date,
		Sequence:            tx.Sequence,
		OriginalQuantity:    tx.Amount,
		QuantityRemaining:   tx.Amount,
		CostBasisPerUnit:    tx.ValueUSD.Div(tx.Amount),
		SourceTransactionID: tx.ID,
	}
	st.lots = append(st.lots, lot)
	if st.byID == nil {
		st.byID = make(map[string]*models.Lot)
	}
	st.byID[lot.ID] = lot
}

func (st *state) dispose(tx *models.Transaction) {
	quantity := tx.Amount

	// Fees reduce proceeds. An unpriced disposal still consumes lots (the
	// quantity left the wallet either way) but its proceeds are unknown, so
	// it is flagged for review.
	proceeds := decimal.Zero
	if tx.ValueUSD != nil {
		proceeds = tx.ValueUSD.Sub(tx.FeeUSD)
	} else {
		st.warn(tx, models.WarnUnpricedDisposal,
			fmt.Errorf("disposal %s (%s) has no USD valuation; proceeds recorded as zero", tx.ID, tx.Asset))
	}

	if st.method == models.MethodSpecificID {
		st.disposeSpecific(tx, quantity, proceeds)
		return
	}

	candidates := st.candidateLots()
	available := decimal.Zero
	for _, lot := range candidates {
		available = available.Add(lot.QuantityRemaining)
	}
	if available.LessThan(quantity) {
		st.warn(tx, models.WarnInsufficientLots, &apperrors.InsufficientLotsError{
			TransactionID: tx.ID,
			Asset:         tx.Asset,
			Requested:     quantity.String(),
			Available:     available.String(),
		})
		return
	}

	remaining := quantity
	for _, lot := range candidates {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(lot.QuantityRemaining, remaining)
		st.consume(tx, lot, take, quantity, proceeds)
		remaining = remaining.Sub(take)
	}
}

// disposeSpecific applies caller-supplied lot selections. The whole selection
// set is validated before any lot is touched: a bad reference rejects the
// disposal without partial consumption.
func (st *state) disposeSpecific(tx *models.Transaction, quantity, proceeds decimal.Decimal) {
	sels := st.selections[tx.ID]
	if len(sels) == 0 {
		st.warn(tx, models.WarnLotNotFound, &apperrors.LotNotFoundError{
			TransactionID: tx.ID,
			LotID:         "(none selected)",
		})
		return
	}

	selected := decimal.Zero
	for _, sel := range sels {
		lot, ok := st.byID[sel.LotID]
		if !ok || lot.QuantityRemaining.LessThan(sel.Quantity) {
			st.warn(tx, models.WarnLotNotFound, &apperrors.LotNotFoundError{
				TransactionID: tx.ID,
				LotID:         sel.LotID,
			})
			return
		}
		selected = selected.Add(sel.Quantity)
	}
	if !selected.Equal(quantity) {
		st.warn(tx, models.WarnInsufficientLots, &apperrors.InsufficientLotsError{
			TransactionID: tx.ID,
			Asset:         tx.Asset,
			Requested:     quantity.String(),
			Available:     selected.String(),
		})
		return
	}

	for _, sel := range sels {
		st.consume(tx, st.byID[sel.LotID], sel.Quantity, quantity, proceeds)
	}
}

// consume emits one match for take units from lot and decrements the lot.
func (st *state) consume(tx *models.Transaction, lot *models.Lot, take, disposalQty, totalProceeds decimal.Decimal) {
	proceeds := totalProceeds.Mul(take).Div(disposalQty)
	costBasis := lot.CostBasisPerUnit.Mul(take)
	holdingDays := int(tx.Date.Sub(lot.OpenedAt) / (24 * time.Hour))

	term := models.TermShort
	if holdingDays > 365 {
		term = models.TermLong
	}

	st.seq++
	st.matches = append(st.matches, models.DisposalMatch{
		LotID:                 lot.ID,
		DisposalTransactionID: tx.ID,
		Asset:                 tx.Asset,
		DisposalDate:          tx.Date,
		Sequence:              st.seq,
		QuantityMatched:       take,
		ProceedsUSD:           proceeds,
		CostBasisUSD:          costBasis,
		GainLoss:              proceeds.Sub(costBasis),
		HoldingPeriodDays:     holdingDays,
		TermType:              term,
	})

	lot.QuantityRemaining = lot.QuantityRemaining.Sub(take)
}

// candidateLots returns open lots in the consumption order the method
// dictates. The backing slice is already in acquisition (FIFO) order.
func (st *state) candidateLots() []*models.Lot {
	open := make([]*models.Lot, 0, len(st.lots))
	for _, lot := range st.lots {
		if lot.QuantityRemaining.IsPositive() {
			open = append(open, lot)
		}
	}

	switch st.method {
	case models.MethodLIFO:
		for i, j := 0, len(open)-1; i < j; i, j = i+1, j-1 {
			open[i], open[j] = open[j], open[i]
		}
	case models.MethodHIFO:
		// highest cost basis first; ties go to the oldest lot
		sort.SliceStable(open, func(i, j int) bool {
			if !open[i].CostBasisPerUnit.Equal(open[j].CostBasisPerUnit) {
				return open[i].CostBasisPerUnit.GreaterThan(open[j].CostBasisPerUnit)
			}
			if !open[i].OpenedAt.Equal(open[j].OpenedAt) {
				return open[i].OpenedAt.Before(open[j].OpenedAt)
			}
			return open[i].Sequence < open[j].Sequence
		})
	}
	return open
}

func (st *state) openLots() []*models.Lot {
	open := make([]*models.Lot, 0, len(st.lots))
	for _, lot := range st.lots {
		if lot.QuantityRemaining.IsPositive() {
			open = append(open, lot)
		}
	}
	return open
}

// checkOrdering enforces the input contract: one user, one asset, ascending
// (date, sequence).
func checkOrdering(userID, asset string, txs []*models.Transaction) error {
	for i, tx := range txs {
		if tx.UserID != userID {
			return fmt.Errorf("transaction %s belongs to user %s, expected %s", tx.ID, tx.UserID, userID)
		}
		if tx.Asset != asset {
			return fmt.Errorf("transaction %s is for asset %s, expected %s", tx.ID, tx.Asset, asset)
		}
		if i == 0 {
			continue
		}
		prev := txs[i-1]
		if tx.Date.Before(prev.Date) {
			return fmt.Errorf("transactions out of order: %s dated %s precedes %s dated %s",
				tx.ID, tx.Date.Format(time.RFC3339), prev.ID, prev.Date.Format(time.RFC3339))
		}
		if tx.Date.Equal(prev.Date) && tx.Sequence < prev.Sequence {
			return fmt.Errorf("transactions out of order: %s and %s share a date but sequences regress", prev.ID, tx.ID)
		}
	}
	return nil
}
