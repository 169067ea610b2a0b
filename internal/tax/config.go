package tax

import "github.com/shopspring/decimal"

func bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultSchedule returns the compiled-in US single-filer tables. Override
// with TAX_TABLES_FILE for other filing statuses or newer years.
func DefaultSchedule() *Schedule {
	return NewSchedule(
		Table{
			Year: 2023,
			Ordinary: []Bracket{
				{UpTo: bound(11000), Rate: rate("0.10")},
				{UpTo: bound(44725), Rate: rate("0.12")},
				{UpTo: bound(95375), Rate: rate("0.22")},
				{UpTo: bound(182100), Rate: rate("0.24")},
				{UpTo: bound(231250), Rate: rate("0.32")},
				{UpTo: bound(578125), Rate: rate("0.35")},
				{Rate: rate("0.37")},
			},
			LongTerm: []Bracket{
				{UpTo: bound(44625), Rate: rate("0")},
				{UpTo: bound(492300), Rate: rate("0.15")},
				{Rate: rate("0.20")},
			},
		},
		Table{
			Year: 2024,
			Ordinary: []Bracket{
				{UpTo: bound(11600), Rate: rate("0.10")},
				{UpTo: bound(47150), Rate: rate("0.12")},
				{UpTo: bound(100525), Rate: rate("0.22")},
				{UpTo: bound(191950), Rate: rate("0.24")},
				{UpTo: bound(243725), Rate: rate("0.32")},
				{UpTo: bound(609350), Rate: rate("0.35")},
				{Rate: rate("0.37")},
			},
			LongTerm: []Bracket{
				{UpTo: bound(47025), Rate: rate("0")},
				{UpTo: bound(518900), Rate: rate("0.15")},
				{Rate: rate("0.20")},
			},
		},
		Table{
			Year: 2025,
			Ordinary: []Bracket{
				{UpTo: bound(11925), Rate: rate("0.10")},
				{UpTo: bound(48475), Rate: rate("0.12")},
				{UpTo: bound(103350), Rate: rate("0.22")},
				{UpTo: bound(197300), Rate: rate("0.24")},
				{UpTo: bound(250525), Rate: rate("0.32")},
				{UpTo: bound(626350), Rate: rate("0.35")},
				{Rate: rate("0.37")},
			},
			LongTerm: []Bracket{
				{UpTo: bound(48350), Rate: rate("0")},
				{UpTo: bound(533400), Rate: rate("0.15")},
				{Rate: rate("0.20")},
			},
		},
	)
}
