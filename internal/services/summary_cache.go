package services

import (
	"sync"

	"github.com/harborfin/taxlot/internal/models"
)

type summaryKey struct {
	UserID  string
	TaxYear int
	Method  models.TaxMethod
}

type summaryEntry struct {
	gen     uint64
	summary *models.Summary
	history *models.PnLHistory
}

// SummaryCache memoizes computed summaries keyed by (user, year, method).
// Every write to a user's ledger bumps that user's generation, which
// invalidates all their entries at once. A recompute records the generation
// it started from and only lands if no write happened in between, so a slow
// stale recompute never overwrites a fresher result.
type SummaryCache struct {
	mu      sync.RWMutex
	gens    map[string]uint64
	entries map[summaryKey]summaryEntry
}

// NewSummaryCache creates an empty cache.
func NewSummaryCache() *SummaryCache {
	return &SummaryCache{
		gens:    make(map[string]uint64),
		entries: make(map[summaryKey]summaryEntry),
	}
}

// Generation returns the user's current write generation. Recomputes read it
// before loading data and pass it back to Put.
func (c *SummaryCache) Generation(userID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[userID]
}

// Invalidate marks all of a user's cached entries stale.
func (c *SummaryCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
}

// Get returns the cached summary and history for the key, if still current.
func (c *SummaryCache) Get(key summaryKey) (*models.Summary, *models.PnLHistory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || entry.gen != c.gens[key.UserID] {
		return nil, nil, false
	}
	return entry.summary, entry.history, true
}

// Put stores a computed result. It is dropped when gen is no longer the
// user's current generation, or when a newer computation already landed.
func (c *SummaryCache) Put(key summaryKey, gen uint64, summary *models.Summary, history *models.PnLHistory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gens[key.UserID] {
		return
	}
	if existing, ok := c.entries[key]; ok && existing.gen > gen {
		return
	}
	c.entries[key] = summaryEntry{gen: gen, summary: summary, history: history}
}
