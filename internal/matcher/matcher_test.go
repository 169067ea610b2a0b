package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborfin/taxlot/internal/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func usd(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func acquisition(id string, day int, seq int64, amount, valueUSD string) *models.Transaction {
	tx := &models.Transaction{
		ID:       id,
		UserID:   "user-1",
		Sequence: seq,
		Date:     base.AddDate(0, 0, day-1),
		Type:     models.TypeBuy,
		Asset:    "BTC",
		Amount:   decimal.RequireFromString(amount),
	}
	if valueUSD != "" {
		tx.ValueUSD = usd(valueUSD)
	}
	return tx
}

func disposal(id string, day int, seq int64, amount, valueUSD string) *models.Transaction {
	tx := &models.Transaction{
		ID:       id,
		UserID:   "user-1",
		Sequence: seq,
		Date:     base.AddDate(0, 0, day-1),
		Type:     models.TypeSell,
		Asset:    "BTC",
		Amount:   decimal.RequireFromString(amount),
	}
	if valueUSD != "" {
		tx.ValueUSD = usd(valueUSD)
	}
	return tx
}

func TestMatch_FIFO_OldestLotFirst(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		acquisition("buy-2", 10, 2, "1", "20000"),
		disposal("sell-1", 20, 3, "1", "30000"),
	}

	result, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	require.Empty(t, result.Warnings)

	m := result.Matches[0]
	assert.Equal(t, "buy-1", m.LotID)
	assert.Equal(t, "sell-1", m.DisposalTransactionID)
	assert.True(t, m.GainLoss.Equal(decimal.NewFromInt(20000)), "gain = %s", m.GainLoss)
	assert.Equal(t, 19, m.HoldingPeriodDays)
	assert.Equal(t, models.TermShort, m.TermType)

	// day-10 lot remains untouched
	require.Len(t, result.OpenLots, 1)
	assert.Equal(t, "buy-2", result.OpenLots[0].ID)
	assert.True(t, result.OpenLots[0].QuantityRemaining.Equal(decimal.NewFromInt(1)))
}

func TestMatch_HIFO_HighestCostFirst(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		acquisition("buy-2", 10, 2, "1", "20000"),
		disposal("sell-1", 20, 3, "1", "30000"),
	}

	result, err := Match("user-1", "BTC", models.MethodHIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)

	m := result.Matches[0]
	assert.Equal(t, "buy-2", m.LotID)
	assert.True(t, m.GainLoss.Equal(decimal.NewFromInt(10000)), "gain = %s", m.GainLoss)
}

func TestMatch_HIFO_TieBreaksOldestFirst(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "20000"),
		acquisition("buy-2", 5, 2, "1", "20000"),
		disposal("sell-1", 20, 3, "1", "30000"),
	}

	result, err := Match("user-1", "BTC", models.MethodHIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "buy-1", result.Matches[0].LotID)
}

func TestMatch_LIFO_NewestLotFirst(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		acquisition("buy-2", 10, 2, "1", "20000"),
		disposal("sell-1", 20, 3, "0.5", "15000"),
	}

	result, err := Match("user-1", "BTC", models.MethodLIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)

	m := result.Matches[0]
	assert.Equal(t, "buy-2", m.LotID)
	// proceeds 15000, basis 0.5 * 20000 = 10000
	assert.True(t, m.GainLoss.Equal(decimal.NewFromInt(5000)), "gain = %s", m.GainLoss)
}

func TestMatch_MultiLotFill(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		acquisition("buy-2", 10, 2, "1", "20000"),
		disposal("sell-1", 20, 3, "1.5", "45000"),
	}

	result, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)

	total := decimal.Zero
	for _, m := range result.Matches {
		total = total.Add(m.QuantityMatched)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("1.5")))

	assert.Equal(t, "buy-1", result.Matches[0].LotID)
	assert.True(t, result.Matches[0].QuantityMatched.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "buy-2", result.Matches[1].LotID)
	assert.True(t, result.Matches[1].QuantityMatched.Equal(decimal.RequireFromString("0.5")))

	// proceeds split proportionally: 30000 + 15000
	assert.True(t, result.Matches[0].ProceedsUSD.Equal(decimal.NewFromInt(30000)))
	assert.True(t, result.Matches[1].ProceedsUSD.Equal(decimal.NewFromInt(15000)))

	require.Len(t, result.OpenLots, 1)
	assert.True(t, result.OpenLots[0].QuantityRemaining.Equal(decimal.RequireFromString("0.5")))
}

func TestMatch_InsufficientLots(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		disposal("sell-1", 20, 2, "2", "60000"),
	}

	result, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarnInsufficientLots, result.Warnings[0].Code)
	assert.Equal(t, "sell-1", result.Warnings[0].TransactionID)

	// nothing was consumed
	require.Len(t, result.OpenLots, 1)
	assert.True(t, result.OpenLots[0].QuantityRemaining.Equal(decimal.NewFromInt(1)))
}

func TestMatch_UnpricedAcquisitionCreatesNoLot(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", ""),
		disposal("sell-1", 20, 2, "1", "30000"),
	}

	result, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, models.WarnUnpricedAcquisition, result.Warnings[0].Code)
	assert.Equal(t, models.WarnInsufficientLots, result.Warnings[1].Code)
}

func TestMatch_UnpricedDisposalStillConsumes(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		disposal("withdraw-1", 20, 2, "1", ""),
	}

	result, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.True(t, result.Matches[0].ProceedsUSD.IsZero())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarnUnpricedDisposal, result.Warnings[0].Code)
	assert.Empty(t, result.OpenLots)
}

func TestMatch_FeeReducesProceeds(t *testing.T) {
	sell := disposal("sell-1", 20, 2, "1", "30000")
	sell.FeeUSD = decimal.NewFromInt(100)
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		sell,
	}

	result, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.True(t, result.Matches[0].ProceedsUSD.Equal(decimal.NewFromInt(29900)))
	assert.True(t, result.Matches[0].GainLoss.Equal(decimal.NewFromInt(19900)))
}

func TestMatch_SpecificID(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		acquisition("buy-2", 10, 2, "1", "20000"),
		disposal("sell-1", 20, 3, "1", "30000"),
	}
	selections := map[string][]models.LotSelection{
		"sell-1": {{DisposalTransactionID: "sell-1", LotID: "buy-2", Quantity: decimal.NewFromInt(1)}},
	}

	result, err := Match("user-1", "BTC", models.MethodSpecificID, txs, selections)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "buy-2", result.Matches[0].LotID)
	assert.True(t, result.Matches[0].GainLoss.Equal(decimal.NewFromInt(10000)))
}

func TestMatch_SpecificID_UnknownLotRejectsWholeDisposal(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "1", "10000"),
		disposal("sell-1", 20, 2, "1", "30000"),
	}
	selections := map[string][]models.LotSelection{
		"sell-1": {
			{DisposalTransactionID: "sell-1", LotID: "buy-1", Quantity: decimal.RequireFromString("0.5")},
			{DisposalTransactionID: "sell-1", LotID: "no-such-lot", Quantity: decimal.RequireFromString("0.5")},
		},
	}

	result, err := Match("user-1", "BTC", models.MethodSpecificID, txs, selections)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarnLotNotFound, result.Warnings[0].Code)

	// no partial consumption happened
	require.Len(t, result.OpenLots, 1)
	assert.True(t, result.OpenLots[0].QuantityRemaining.Equal(decimal.NewFromInt(1)))
}

func TestMatch_LongTermBoundary(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "2", "20000"),
		disposal("sell-1", 366, 2, "1", "15000"),
		disposal("sell-2", 368, 3, "1", "15000"),
	}

	result, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)

	// 365 days held: still short; 367 days: long
	assert.Equal(t, 365, result.Matches[0].HoldingPeriodDays)
	assert.Equal(t, models.TermShort, result.Matches[0].TermType)
	assert.Equal(t, 367, result.Matches[1].HoldingPeriodDays)
	assert.Equal(t, models.TermLong, result.Matches[1].TermType)
}

func TestMatch_LotNeverOverConsumed(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "2", "20000"),
		acquisition("buy-2", 5, 2, "3", "90000"),
		disposal("sell-1", 10, 3, "1.5", "45000"),
		disposal("sell-2", 15, 4, "2.5", "80000"),
		acquisition("buy-3", 20, 5, "1", "35000"),
		disposal("sell-3", 25, 6, "1.5", "60000"),
	}

	result, err := Match("user-1", "BTC", models.MethodHIFO, txs, nil)
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	original := map[string]decimal.Decimal{
		"buy-1": decimal.NewFromInt(2),
		"buy-2": decimal.NewFromInt(3),
		"buy-3": decimal.NewFromInt(1),
	}
	consumed := map[string]decimal.Decimal{}
	for _, m := range result.Matches {
		consumed[m.LotID] = consumed[m.LotID].Add(m.QuantityMatched)
	}
	for lotID, qty := range consumed {
		assert.True(t, qty.LessThanOrEqual(original[lotID]),
			"lot %s consumed %s of original %s", lotID, qty, original[lotID])
	}

	total := decimal.Zero
	for _, m := range result.Matches {
		total = total.Add(m.QuantityMatched)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("5.5")))
}

func TestMatch_Deterministic(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 1, 1, "2", "20000"),
		acquisition("buy-2", 1, 2, "1", "30000"),
		disposal("sell-1", 10, 3, "2.5", "100000"),
	}

	first, err := Match("user-1", "BTC", models.MethodHIFO, txs, nil)
	require.NoError(t, err)
	second, err := Match("user-1", "BTC", models.MethodHIFO, txs, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestMatch_RejectsUnorderedInput(t *testing.T) {
	txs := []*models.Transaction{
		acquisition("buy-1", 10, 1, "1", "10000"),
		acquisition("buy-2", 1, 2, "1", "10000"),
	}

	_, err := Match("user-1", "BTC", models.MethodFIFO, txs, nil)
	require.Error(t, err)
}

func TestMatch_RejectsForeignAsset(t *testing.T) {
	eth := acquisition("buy-1", 1, 1, "1", "2000")
	eth.Asset = "ETH"
	_, err := Match("user-1", "BTC", models.MethodFIFO, []*models.Transaction{eth}, nil)
	require.Error(t, err)
}
