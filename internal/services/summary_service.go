package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harborfin/taxlot/internal/aggregator"
	"github.com/harborfin/taxlot/internal/matcher"
	"github.com/harborfin/taxlot/internal/models"
	"github.com/harborfin/taxlot/internal/repositories"
)

// summaryService implements the SummaryService interface. Every request
// recomputes from the full ledger unless a current cache entry exists;
// matching runs one goroutine per asset, strictly sequential within an asset.
type summaryService struct {
	txRepo        repositories.TransactionRepository
	selectionRepo repositories.LotSelectionRepository
	estimator     aggregator.Estimator
	cache         *SummaryCache
}

// NewSummaryService creates a new summary service
func NewSummaryService(txRepo repositories.TransactionRepository, selectionRepo repositories.LotSelectionRepository, estimator aggregator.Estimator, cache *SummaryCache) SummaryService {
	return &summaryService{
		txRepo:        txRepo,
		selectionRepo: selectionRepo,
		estimator:     estimator,
		cache:         cache,
	}
}

func (s *summaryService) GetSummary(ctx context.Context, userID string, taxYear int, method models.TaxMethod) (*models.Summary, error) {
	summary, _, err := s.load(ctx, userID, taxYear, method)
	return summary, err
}

func (s *summaryService) GetPnLHistory(ctx context.Context, userID string, taxYear int, method models.TaxMethod) (*models.PnLHistory, error) {
	_, history, err := s.load(ctx, userID, taxYear, method)
	return history, err
}

func (s *summaryService) load(ctx context.Context, userID string, taxYear int, method models.TaxMethod) (*models.Summary, *models.PnLHistory, error) {
	key := summaryKey{UserID: userID, TaxYear: taxYear, Method: method}
	if s.cache != nil {
		if summary, history, ok := s.cache.Get(key); ok {
			return summary, history, nil
		}
	}

	var gen uint64
	if s.cache != nil {
		gen = s.cache.Generation(userID)
	}

	matches, warnings, err := s.computeMatches(ctx, userID, method)
	if err != nil {
		return nil, nil, err
	}
	if warnings == nil {
		warnings = []models.MatchWarning{}
	}

	summary, err := aggregator.Summarize(matches, taxYear, method, s.estimator)
	if err != nil {
		return nil, nil, err
	}
	summary.Warnings = warnings

	history := aggregator.History(matches, taxYear, method)
	history.Warnings = warnings

	if s.cache != nil {
		s.cache.Put(key, gen, summary, history)
	}
	return summary, history, nil
}

// computeMatches loads the user's ledger once and matches each asset in its
// own goroutine. Results are merged back in a deterministic order.
func (s *summaryService) computeMatches(ctx context.Context, userID string, method models.TaxMethod) ([]models.DisposalMatch, []models.MatchWarning, error) {
	txs, err := s.txRepo.ListForMatching(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var selections map[string][]models.LotSelection
	if method == models.MethodSpecificID {
		selections, err = s.selectionRepo.ListForUser(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
	}

	byAsset := make(map[string][]*models.Transaction)
	for _, tx := range txs {
		byAsset[tx.Asset] = append(byAsset[tx.Asset], tx)
	}

	assets := make([]string, 0, len(byAsset))
	for asset := range byAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	results := make(map[string]*matcher.Result, len(assets))
	errs := make(map[string]error, len(assets))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, asset := range assets {
		wg.Add(1)
		go func(asset string, assetTxs []*models.Transaction) {
			defer wg.Done()
			result, err := matcher.Match(userID, asset, method, assetTxs, selections)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[asset] = err
				return
			}
			results[asset] = result
		}(asset, byAsset[asset])
	}
	wg.Wait()

	for _, asset := range assets {
		if err := errs[asset]; err != nil {
			return nil, nil, fmt.Errorf("failed to match %s lots: %w", asset, err)
		}
	}

	var matches []models.DisposalMatch
	var warnings []models.MatchWarning
	for _, asset := range assets {
		matches = append(matches, results[asset].Matches...)
		warnings = append(warnings, results[asset].Warnings...)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].DisposalDate.Equal(matches[j].DisposalDate) {
			return matches[i].DisposalDate.Before(matches[j].DisposalDate)
		}
		return matches[i].Sequence < matches[j].Sequence
	})

	return matches, warnings, nil
}
