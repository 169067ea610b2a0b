package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborfin/taxlot/internal/db"
	"github.com/harborfin/taxlot/internal/models"
)

type lotSelectionRepository struct {
	db *db.DB
}

// NewLotSelectionRepository creates a new lot selection repository
func NewLotSelectionRepository(database *db.DB) LotSelectionRepository {
	return &lotSelectionRepository{db: database}
}

// ReplaceForDisposal swaps the selection set for one disposal atomically.
// Selections are all-or-nothing per disposal, so partial edits never persist.
func (r *lotSelectionRepository) ReplaceForDisposal(ctx context.Context, userID, disposalID string, selections []models.LotSelection) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND disposal_transaction_id = ?", userID, disposalID).
			Delete(&models.LotSelection{}).Error; err != nil {
			return fmt.Errorf("failed to clear selections: %w", err)
		}
		for i := range selections {
			s := selections[i]
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			s.UserID = userID
			s.DisposalTransactionID = disposalID
			if err := tx.Create(&s).Error; err != nil {
				return fmt.Errorf("failed to create selection: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace lot selections: %w", err)
	}
	return nil
}

// ListForUser returns all selections keyed by disposal transaction ID, the
// shape the matcher consumes.
func (r *lotSelectionRepository) ListForUser(ctx context.Context, userID string) (map[string][]models.LotSelection, error) {
	var rows []models.LotSelection
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("disposal_transaction_id ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lot selections: %w", err)
	}

	byDisposal := make(map[string][]models.LotSelection)
	for _, row := range rows {
		byDisposal[row.DisposalTransactionID] = append(byDisposal[row.DisposalTransactionID], row)
	}
	return byDisposal, nil
}
