package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category and currency.
type CategoryAmount struct {
	Category string
	Currency string
	Amount   decimal.Decimal
	Count    int
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Count      int
	Totals     map[string]decimal.Decimal // by currency
	ByCategory []CategoryAmount
}

// MonthBounds returns the half-open [start, end) interval of a calendar month
// in UTC.
func MonthBounds(year, month int) (time.Time, time.Time) {
	return MonthBoundsIn(year, month, time.UTC)
}

// MonthBoundsIn is MonthBounds for the calendar of loc.
func MonthBoundsIn(year, month int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Summarize aggregates expenses into a month overview. Categories are ordered
// by descending amount, then by name.
func Summarize(year, month int, expenses []Expense) MonthOverview {
	ov := MonthOverview{
		Year:   year,
		Month:  month,
		Totals: map[string]decimal.Decimal{},
	}
	type key struct{ category, currency string }
	idx := map[key]int{}
	for _, e := range expenses {
		ov.Count++
		ov.Totals[e.Currency] = ov.Totals[e.Currency].Add(e.Amount)

		k := key{e.Category, e.Currency}
		i, ok := idx[k]
		if !ok {
			i = len(ov.ByCategory)
			idx[k] = i
			ov.ByCategory = append(ov.ByCategory, CategoryAmount{Category: e.Category, Currency: e.Currency})
		}
		ov.ByCategory[i].Amount = ov.ByCategory[i].Amount.Add(e.Amount)
		ov.ByCategory[i].Count++
	}
	sort.SliceStable(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return ov
}

// Currencies returns the currencies present in the overview, sorted.
func (m MonthOverview) Currencies() []string {
	out := make([]string, 0, len(m.Totals))
	for c := range m.Totals {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
