package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harborfin/taxlot/internal/models"
)

// stubTxRepo is an in-memory TransactionRepository for service tests.
type stubTxRepo struct {
	mu        sync.Mutex
	txs       map[string]*models.Transaction
	listCalls int
}

func newStubTxRepo() *stubTxRepo {
	return &stubTxRepo{txs: make(map[string]*models.Transaction)}
}

func (r *stubTxRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.ID] = tx
	return nil
}

func (r *stubTxRepo) CreateBatch(ctx context.Context, txs []*models.Transaction) ([]*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range txs {
		r.txs[tx.ID] = tx
	}
	return txs, nil
}

func (r *stubTxRepo) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok {
		return nil, fmt.Errorf("transaction not found: %s", id)
	}
	return tx, nil
}

func (r *stubTxRepo) List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	return r.ListForMatching(ctx, filter.UserID)
}

func (r *stubTxRepo) ListForMatching(ctx context.Context, userID string) ([]*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []*models.Transaction
	for _, tx := range r.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (r *stubTxRepo) GetCount(ctx context.Context, filter *models.TransactionFilter) (int, error) {
	txs, _ := r.ListForMatching(ctx, filter.UserID)
	return len(txs), nil
}

func (r *stubTxRepo) Update(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[tx.ID]; !ok {
		return fmt.Errorf("transaction not found: %s", tx.ID)
	}
	r.txs[tx.ID] = tx
	return nil
}

func (r *stubTxRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[id]; !ok {
		return fmt.Errorf("transaction not found: %s", id)
	}
	delete(r.txs, id)
	return nil
}

func (r *stubTxRepo) NextSequence(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var max int64
	for _, tx := range r.txs {
		if tx.UserID == userID && tx.Sequence > max {
			max = tx.Sequence
		}
	}
	return max + 1, nil
}

// stubSelectionRepo is an in-memory LotSelectionRepository.
type stubSelectionRepo struct {
	mu         sync.Mutex
	selections map[string]map[string][]models.LotSelection // userID -> disposalID
}

func newStubSelectionRepo() *stubSelectionRepo {
	return &stubSelectionRepo{selections: make(map[string]map[string][]models.LotSelection)}
}

func (r *stubSelectionRepo) ReplaceForDisposal(ctx context.Context, userID, disposalID string, selections []models.LotSelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selections[userID] == nil {
		r.selections[userID] = make(map[string][]models.LotSelection)
	}
	withOwner := make([]models.LotSelection, len(selections))
	for i, s := range selections {
		s.UserID = userID
		s.DisposalTransactionID = disposalID
		withOwner[i] = s
	}
	r.selections[userID][disposalID] = withOwner
	return nil
}

func (r *stubSelectionRepo) ListForUser(ctx context.Context, userID string) (map[string][]models.LotSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]models.LotSelection)
	for disposalID, sels := range r.selections[userID] {
		out[disposalID] = append([]models.LotSelection{}, sels...)
	}
	return out, nil
}
