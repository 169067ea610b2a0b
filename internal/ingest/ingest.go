// Package ingest normalizes vendor transaction records into ledger
// transactions. Exchanges disagree on asset codes, type names and amount
// signs; everything downstream of this package sees one canonical shape.
package ingest

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborfin/taxlot/internal/models"
)

// Kraken prefixes most assets with X (crypto) or Z (fiat) and still calls
// Bitcoin XBT. Binance codes pass through untouched.
var assetAliases = map[string]string{
	"XXBT": "BTC",
	"XBT":  "BTC",
	"XETH": "ETH",
	"XXDG": "DOGE",
	"XDG":  "DOGE",
	"XXRP": "XRP",
	"XXLM": "XLM",
	"XXMR": "XMR",
	"XLTC": "LTC",
	"XZEC": "ZEC",
	"XETC": "ETC",
	"XREP": "REP",
	"ZUSD": "USD",
	"ZEUR": "EUR",
	"ZGBP": "GBP",
	"ZJPY": "JPY",
	"ZCAD": "CAD",
	"ZAUD": "AUD",
}

// NormalizeAsset maps a vendor asset code to its canonical ticker.
func NormalizeAsset(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := assetAliases[c]; ok {
		return canonical
	}
	return c
}

// NormalizeType maps a vendor transaction type to a ledger type. Types like
// "trade" and "transfer" are directionless at the vendor; the amount sign
// decides which side of the ledger they land on. The second return is false
// when the vendor type has no mapping.
func NormalizeType(vendorType string, amount decimal.Decimal) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(vendorType)) {
	case "buy":
		return models.TypeBuy, true
	case "sell":
		return models.TypeSell, true
	case "trade":
		if amount.IsNegative() {
			return models.TypeSell, true
		}
		return models.TypeBuy, true
	case "deposit":
		return models.TypeDeposit, true
	case "withdraw", "withdrawal":
		return models.TypeWithdraw, true
	case "transfer":
		if amount.IsNegative() {
			return models.TypeTransferOut, true
		}
		return models.TypeTransferIn, true
	case "receive":
		return models.TypeTransferIn, true
	case "spend", "send":
		return models.TypeTransferOut, true
	case "staking", "staking_reward", "reward":
		return models.TypeReward, true
	case "income", "interest", "dividend", "distribution":
		return models.TypeIncome, true
	case "airdrop":
		return models.TypeAirdrop, true
	case "fee", "margin_fee":
		return models.TypeFee, true
	}
	return "", false
}

// Normalize converts raw vendor records for one user into ledger
// transactions. Records are sorted by date with arrival order preserved for
// ties, then numbered from nextSeq so the matcher sees a total order.
// Records that cannot be mapped or fail validation come back in skipped.
func Normalize(userID, sourceID string, raws []models.RawTx, nextSeq int64) (txs []*models.Transaction, skipped []models.RawTx) {
	ordered := make([]models.RawTx, len(raws))
	copy(ordered, raws)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	for _, raw := range ordered {
		txType, ok := NormalizeType(raw.Type, raw.Amount)
		if !ok {
			skipped = append(skipped, raw)
			continue
		}

		tx := &models.Transaction{
			ID:       transactionID(raw),
			UserID:   userID,
			SourceID: sourceID,
			Sequence: nextSeq,
			Date:     raw.Date.UTC(),
			Type:     txType,
			Asset:    NormalizeAsset(raw.Asset),
			Amount:   raw.Amount.Abs(),
			ValueUSD: raw.ValueUSD,
			Fee:      raw.Fee.Abs(),
			FeeUSD:   raw.FeeUSD.Abs(),
		}
		if err := tx.PreSave(); err != nil {
			skipped = append(skipped, raw)
			continue
		}

		txs = append(txs, tx)
		nextSeq++
	}
	return txs, skipped
}

// transactionID derives a stable ID from the vendor record so re-syncing the
// same window upserts rather than duplicates. Records without a vendor ID get
// a random one.
func transactionID(raw models.RawTx) string {
	if raw.VendorID == "" {
		return uuid.NewString()
	}
	return strings.ToLower(raw.Source) + ":" + raw.VendorID
}
