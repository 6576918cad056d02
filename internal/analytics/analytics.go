// Package analytics derives read-only views from a user's carbon entry log:
// running stats, trailing-window trends, human-readable insights and goal
// progress.
//
// Every function here is pure. It takes the entries and an explicit "now"
// and touches no store, clock or global state, so two calls with the same
// input return identical snapshots and any number of them can run in
// parallel. The calendar (day and month boundaries) is the one of now's
// location.
//
// Amounts are summed with shopspring/decimal. Float addition is not
// associative, so a float64 accumulator would give slightly different totals
// for the same entries listed in a different order.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sakif/ecoguardian/internal/model"
)

const (
	// WindowDays is the length of the trailing analytics window, today
	// included.
	WindowDays = 30

	week = 7 * 24 * time.Hour

	dayLayout = "2006-01-02"
)

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// windowStart is midnight of the oldest day in the trailing window.
func windowStart(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, -(WindowDays - 1))
}

// within reports start <= t <= end.
func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func amountOf(e model.CarbonEntry) decimal.Decimal {
	return decimal.NewFromFloat(e.Amount)
}

// sumWhere adds up the entries accepted by keep.
func sumWhere(entries []model.CarbonEntry, keep func(model.CarbonEntry) bool) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if keep(e) {
			total = total.Add(amountOf(e))
		}
	}
	return total
}

func toFloatMap(sums map[model.Category]decimal.Decimal) map[model.Category]float64 {
	out := make(map[model.Category]float64, len(sums))
	for c, d := range sums {
		out[c] = d.InexactFloat64()
	}
	return out
}
