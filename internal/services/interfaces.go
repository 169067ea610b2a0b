package services

import (
	"context"
	"time"

	"github.com/harborfin/taxlot/internal/models"
)

// TransactionService defines the interface for transaction operations
type TransactionService interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransactionCount(ctx context.Context, filter *models.TransactionFilter) (int, error)
	CategorizeTransaction(ctx context.Context, id, category string) (*models.Transaction, error)
	ImportTransactions(ctx context.Context, txs []*models.Transaction) ([]*models.Transaction, error)
	SetLotSelections(ctx context.Context, userID, disposalID string, selections []models.LotSelection) error
}

// SummaryService defines the interface for realized-gains reporting
type SummaryService interface {
	GetSummary(ctx context.Context, userID string, taxYear int, method models.TaxMethod) (*models.Summary, error)
	GetPnLHistory(ctx context.Context, userID string, taxYear int, method models.TaxMethod) (*models.PnLHistory, error)
}

// SyncService defines the interface for pulling ledgers from exchanges
type SyncService interface {
	TestConnection(ctx context.Context, exchange string, creds models.Credentials) (bool, error)
	Sync(ctx context.Context, userID, exchange string, creds models.Credentials, start, end time.Time) (*SyncResult, error)
}

// SyncResult reports what one sync run pulled and stored.
type SyncResult struct {
	Exchange string           `json:"exchange"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Balances []models.Balance `json:"balances"`
}
