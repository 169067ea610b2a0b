// Package tax holds the capital-gains bracket tables and the incremental
// bracket math used to estimate tax on realized gains. Tables are versioned
// configuration data keyed by tax year: rates change annually, so the
// defaults compiled in here can be replaced wholesale from a JSON file
// without touching the aggregation code.
package tax

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
)

// Bracket is one marginal rate band. UpTo is the inclusive upper bound of the
// band; nil means unbounded (the top bracket).
type Bracket struct {
	UpTo *decimal.Decimal `json:"up_to"`
	Rate decimal.Decimal  `json:"rate"`
}

// Table holds the bracket sets for one tax year. Ordinary rates apply to
// short-term gains, LongTerm rates to long-term gains.
type Table struct {
	Year     int       `json:"year"`
	Ordinary []Bracket `json:"ordinary"`
	LongTerm []Bracket `json:"long_term"`
}

// Schedule is a set of bracket tables keyed by year.
type Schedule struct {
	tables map[int]Table
}

// NewSchedule builds a schedule from explicit tables.
func NewSchedule(tables ...Table) *Schedule {
	s := &Schedule{tables: make(map[int]Table, len(tables))}
	for _, t := range tables {
		s.tables[t.Year] = t
	}
	return s
}

// LoadSchedule reads bracket tables from a JSON file (an array of Table).
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax tables: %w", err)
	}
	var tables []Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse tax tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("tax tables file %s contains no tables", path)
	}
	return NewSchedule(tables...), nil
}

// Estimate applies the year's ordinary brackets to the net short-term amount
// and the preferential brackets to the net long-term amount, independently.
// Negative (net loss) amounts estimate zero tax for that bucket.
func (s *Schedule) Estimate(year int, shortNet, longNet decimal.Decimal) (decimal.Decimal, error) {
	table, err := s.tableFor(year)
	if err != nil {
		return decimal.Zero, err
	}
	total := applyBrackets(shortNet, table.Ordinary)
	total = total.Add(applyBrackets(longNet, table.LongTerm))
	return total.Round(2), nil
}

// tableFor returns the table for year, falling back to the most recent prior
// year when the exact year has no table yet.
func (s *Schedule) tableFor(year int) (Table, error) {
	if t, ok := s.tables[year]; ok {
		return t, nil
	}
	years := make([]int, 0, len(s.tables))
	for y := range s.tables {
		if y < year {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return Table{}, fmt.Errorf("no bracket table available for tax year %d", year)
	}
	sort.Ints(years)
	return s.tables[years[len(years)-1]], nil
}

// applyBrackets computes incremental tax over the bands.
func applyBrackets(amount decimal.Decimal, brackets []Bracket) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}

	total := decimal.Zero
	lower := decimal.Zero
	for _, b := range brackets {
		upper := amount
		if b.UpTo != nil && b.UpTo.LessThan(amount) {
			upper = *b.UpTo
		}
		if upper.LessThanOrEqual(lower) {
			break
		}
		total = total.Add(upper.Sub(lower).Mul(b.Rate))
		lower = upper
		if lower.GreaterThanOrEqual(amount) {
			break
		}
	}
	return total
}
