package tax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate_OrdinaryIncremental(t *testing.T) {
	s := DefaultSchedule()

	// 2024 single filer: 11600 @ 10% + 35550 @ 12% + 2850 @ 22%
	got, err := s.Estimate(2024, decimal.NewFromInt(50000), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(6053)), "tax = %s", got)
}

func TestEstimate_LongTermPreferential(t *testing.T) {
	s := DefaultSchedule()

	// first 47025 at 0%, remainder at 15%
	got, err := s.Estimate(2024, decimal.Zero, decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("7946.25")), "tax = %s", got)
}

func TestEstimate_CombinesBuckets(t *testing.T) {
	s := DefaultSchedule()

	got, err := s.Estimate(2024, decimal.NewFromInt(10000), decimal.NewFromInt(10000))
	require.NoError(t, err)
	// short: 10000 @ 10%; long: entirely inside the 0% band
	assert.True(t, got.Equal(decimal.NewFromInt(1000)), "tax = %s", got)
}

func TestEstimate_LossesOweNothing(t *testing.T) {
	s := DefaultSchedule()

	got, err := s.Estimate(2024, decimal.NewFromInt(-5000), decimal.NewFromInt(-1000))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestEstimate_FallsBackToPriorYear(t *testing.T) {
	s := DefaultSchedule()

	// no 2030 table yet; the 2025 table applies
	future, err := s.Estimate(2030, decimal.NewFromInt(10000), decimal.Zero)
	require.NoError(t, err)
	current, err := s.Estimate(2025, decimal.NewFromInt(10000), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, future.Equal(current))
}

func TestEstimate_NoTableBeforeFirstYear(t *testing.T) {
	s := DefaultSchedule()

	_, err := s.Estimate(2001, decimal.NewFromInt(10000), decimal.Zero)
	require.Error(t, err)
}

func TestLoadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")
	payload := `[{
		"year": 2024,
		"ordinary": [{"up_to": "1000", "rate": "0.5"}, {"rate": "0.9"}],
		"long_term": [{"rate": "0.1"}]
	}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	s, err := LoadSchedule(path)
	require.NoError(t, err)

	got, err := s.Estimate(2024, decimal.NewFromInt(2000), decimal.Zero)
	require.NoError(t, err)
	// 1000 @ 50% + 1000 @ 90%
	assert.True(t, got.Equal(decimal.NewFromInt(1400)), "tax = %s", got)
}

func TestLoadSchedule_MissingFile(t *testing.T) {
	_, err := LoadSchedule(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
