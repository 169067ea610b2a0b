package services

import (
	"context"
	"fmt"
	"time"

	"github.com/harborfin/taxlot/internal/exchanges"
	"github.com/harborfin/taxlot/internal/ingest"
	"github.com/harborfin/taxlot/internal/models"
	"github.com/harborfin/taxlot/internal/repositories"
)

// syncService pulls vendor records through an exchange adapter, normalizes
// them and stores the batch.
type syncService struct {
	registry  *exchanges.Registry
	txRepo    repositories.TransactionRepository
	txService TransactionService
}

// NewSyncService creates a new sync service
func NewSyncService(registry *exchanges.Registry, txRepo repositories.TransactionRepository, txService TransactionService) SyncService {
	return &syncService{
		registry:  registry,
		txRepo:    txRepo,
		txService: txService,
	}
}

func (s *syncService) TestConnection(ctx context.Context, exchange string, creds models.Credentials) (bool, error) {
	adapter, err := s.registry.Get(exchange)
	if err != nil {
		return false, err
	}
	return adapter.TestConnection(ctx, creds)
}

// Sync fetches [start, end] from the exchange, normalizes and imports.
// Vendor record IDs are stable, so overlapping windows are safe to re-sync.
func (s *syncService) Sync(ctx context.Context, userID, exchange string, creds models.Credentials, start, end time.Time) (*SyncResult, error) {
	adapter, err := s.registry.Get(exchange)
	if err != nil {
		return nil, err
	}

	raws, err := adapter.SyncTransactions(ctx, creds, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sync %s transactions: %w", exchange, err)
	}
	balances, err := adapter.SyncAccounts(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to sync %s accounts: %w", exchange, err)
	}

	nextSeq, err := s.txRepo.NextSequence(ctx, userID)
	if err != nil {
		return nil, err
	}

	txs, skipped := ingest.Normalize(userID, adapter.Name(), raws, nextSeq)
	if _, err := s.txService.ImportTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("failed to import %s transactions: %w", exchange, err)
	}

	return &SyncResult{
		Exchange: adapter.Name(),
		Imported: len(txs),
		Skipped:  len(skipped),
		Balances: balances,
	}, nil
}
