package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/harborfin/taxlot/internal/errors"
	"github.com/harborfin/taxlot/internal/models"
	"github.com/harborfin/taxlot/internal/repositories"
)

// transactionService implements the TransactionService interface
type transactionService struct {
	txRepo        repositories.TransactionRepository
	selectionRepo repositories.LotSelectionRepository
	cache         *SummaryCache
}

// NewTransactionService creates a new transaction service. cache may be nil;
// when set, every ledger write invalidates the user's cached summaries.
func NewTransactionService(txRepo repositories.TransactionRepository, selectionRepo repositories.LotSelectionRepository, cache *SummaryCache) TransactionService {
	return &transactionService{
		txRepo:        txRepo,
		selectionRepo: selectionRepo,
		cache:         cache,
	}
}

func (s *transactionService) invalidate(userID string) {
	if s.cache != nil && userID != "" {
		s.cache.Invalidate(userID)
	}
}

// CreateTransaction validates and stores a manually entered transaction.
func (s *transactionService) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Sequence == 0 {
		seq, err := s.txRepo.NextSequence(ctx, tx.UserID)
		if err != nil {
			return fmt.Errorf("failed to assign sequence: %w", err)
		}
		tx.Sequence = seq
	}
	if err := tx.PreSave(); err != nil {
		return fmt.Errorf("transaction validation failed: %w", err)
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return err
	}
	s.invalidate(tx.UserID)
	return nil
}

func (s *transactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return s.txRepo.GetByID(ctx, id)
}

func (s *transactionService) ListTransactions(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	return s.txRepo.List(ctx, filter)
}

func (s *transactionService) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		return &apperrors.ErrValidation{Field: "id", Message: "id is required"}
	}
	if err := tx.PreSave(); err != nil {
		return fmt.Errorf("transaction validation failed: %w", err)
	}
	if err := s.txRepo.Update(ctx, tx); err != nil {
		return err
	}
	s.invalidate(tx.UserID)
	return nil
}

func (s *transactionService) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.txRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(tx.UserID)
	return nil
}

func (s *transactionService) GetTransactionCount(ctx context.Context, filter *models.TransactionFilter) (int, error) {
	return s.txRepo.GetCount(ctx, filter)
}

// CategorizeTransaction assigns a category and flips the categorized flag.
func (s *transactionService) CategorizeTransaction(ctx context.Context, id, category string) (*models.Transaction, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, &apperrors.ErrValidation{Field: "category", Message: "category is required"}
	}

	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tx.Category = category
	tx.IsCategorized = true
	if err := s.txRepo.Update(ctx, tx); err != nil {
		return nil, err
	}
	s.invalidate(tx.UserID)
	return tx, nil
}

// ImportTransactions stores a normalized batch, assigning sequence numbers to
// entries that arrive without one.
func (s *transactionService) ImportTransactions(ctx context.Context, txs []*models.Transaction) ([]*models.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	nextSeq := int64(0)
	for _, tx := range txs {
		if tx.Sequence == 0 {
			if nextSeq == 0 {
				seq, err := s.txRepo.NextSequence(ctx, tx.UserID)
				if err != nil {
					return nil, fmt.Errorf("failed to assign sequence: %w", err)
				}
				nextSeq = seq
			}
			tx.Sequence = nextSeq
			nextSeq++
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		if err := tx.PreSave(); err != nil {
			return nil, fmt.Errorf("transaction %s validation failed: %w", tx.ID, err)
		}
	}
	stored, err := s.txRepo.CreateBatch(ctx, txs)
	if err != nil {
		return nil, err
	}
	s.invalidate(txs[0].UserID)
	return stored, nil
}

// SetLotSelections pins a SpecificID disposal to explicit lots. The disposal
// must exist, belong to the user, and the pinned quantities must cover it
// exactly; anything else is rejected before any row changes.
func (s *transactionService) SetLotSelections(ctx context.Context, userID, disposalID string, selections []models.LotSelection) error {
	tx, err := s.txRepo.GetByID(ctx, disposalID)
	if err != nil {
		return err
	}
	if tx.UserID != userID {
		return fmt.Errorf("transaction not found: %s", disposalID)
	}
	if !tx.IsDisposal() {
		return &apperrors.ErrValidation{Field: "disposal_transaction_id", Message: "transaction is not a disposal"}
	}

	total := decimal.Zero
	for _, sel := range selections {
		if sel.LotID == "" {
			return &apperrors.ErrValidation{Field: "lot_id", Message: "lot_id is required"}
		}
		if !sel.Quantity.IsPositive() {
			return &apperrors.ErrValidation{Field: "quantity", Message: "quantity must be positive"}
		}
		total = total.Add(sel.Quantity)
	}
	if len(selections) > 0 && !total.Equal(tx.Amount) {
		return &apperrors.ErrValidation{
			Field:   "quantity",
			Message: fmt.Sprintf("selected quantities sum to %s, disposal amount is %s", total, tx.Amount),
		}
	}

	if err := s.selectionRepo.ReplaceForDisposal(ctx, userID, disposalID, selections); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}
