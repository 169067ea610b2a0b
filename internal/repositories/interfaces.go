package repositories

import (
	"context"

	"github.com/harborfin/taxlot/internal/models"
)

// TransactionRepository defines the interface for transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	CreateBatch(ctx context.Context, txs []*models.Transaction) ([]*models.Transaction, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error)
	ListForMatching(ctx context.Context, userID string) ([]*models.Transaction, error)
	GetCount(ctx context.Context, filter *models.TransactionFilter) (int, error)
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, id string) error
	NextSequence(ctx context.Context, userID string) (int64, error)
}

// LotSelectionRepository defines the interface for SpecificID lot pin storage
type LotSelectionRepository interface {
	ReplaceForDisposal(ctx context.Context, userID, disposalID string, selections []models.LotSelection) error
	ListForUser(ctx context.Context, userID string) (map[string][]models.LotSelection, error)
}
