package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborfin/taxlot/internal/models"
)

func cacheKeyFor(user string) summaryKey {
	return summaryKey{UserID: user, TaxYear: 2024, Method: models.MethodFIFO}
}

func TestSummaryCache_PutGet(t *testing.T) {
	cache := NewSummaryCache()
	key := cacheKeyFor("user-1")

	_, _, ok := cache.Get(key)
	assert.False(t, ok)

	gen := cache.Generation("user-1")
	summary := &models.Summary{TaxYear: 2024}
	history := &models.PnLHistory{TaxYear: 2024}
	cache.Put(key, gen, summary, history)

	gotSummary, gotHistory, ok := cache.Get(key)
	require.True(t, ok)
	assert.Same(t, summary, gotSummary)
	assert.Same(t, history, gotHistory)
}

func TestSummaryCache_InvalidateDropsEntries(t *testing.T) {
	cache := NewSummaryCache()
	key := cacheKeyFor("user-1")

	cache.Put(key, cache.Generation("user-1"), &models.Summary{}, &models.PnLHistory{})
	cache.Invalidate("user-1")

	_, _, ok := cache.Get(key)
	assert.False(t, ok)

	// other users keep their entries
	otherKey := cacheKeyFor("user-2")
	cache.Put(otherKey, cache.Generation("user-2"), &models.Summary{}, &models.PnLHistory{})
	cache.Invalidate("user-1")
	_, _, ok = cache.Get(otherKey)
	assert.True(t, ok)
}

func TestSummaryCache_StaleRecomputeNeverLands(t *testing.T) {
	cache := NewSummaryCache()
	key := cacheKeyFor("user-1")

	staleGen := cache.Generation("user-1")

	// a write happens while the stale recompute is in flight
	cache.Invalidate("user-1")
	freshGen := cache.Generation("user-1")
	fresh := &models.Summary{TransactionCount: 2}
	cache.Put(key, freshGen, fresh, &models.PnLHistory{})

	// the stale result arrives late and must be dropped
	cache.Put(key, staleGen, &models.Summary{TransactionCount: 1}, &models.PnLHistory{})

	gotSummary, _, ok := cache.Get(key)
	require.True(t, ok)
	assert.Same(t, fresh, gotSummary)
}
