package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sakif/ecoguardian/internal/model"
)

// Stats computes the running totals over the whole entry log.
//
// MonthTotal covers the first of now's month up to now; entries dated after
// now count toward Total but not toward MonthTotal.
func Stats(entries []model.CarbonEntry, now time.Time) model.StatsSnapshot {
	monthStart := startOfMonth(now)

	total := decimal.Zero
	month := decimal.Zero
	breakdown := make(map[model.Category]decimal.Decimal)

	for _, e := range entries {
		a := amountOf(e)
		total = total.Add(a)
		breakdown[e.Category] = breakdown[e.Category].Add(a)
		if within(e.Date, monthStart, now) {
			month = month.Add(a)
		}
	}

	return model.StatsSnapshot{
		Total:             total.InexactFloat64(),
		MonthTotal:        month.InexactFloat64(),
		CategoryBreakdown: toFloatMap(breakdown),
		EntryCount:        len(entries),
	}
}

// AdviceContext summarizes the log for the external advice collaborator.
func AdviceContext(entries []model.CarbonEntry, now time.Time) model.AdviceContext {
	s := Stats(entries, now)
	return model.AdviceContext{
		TotalCarbon:       s.Total,
		MonthCarbon:       s.MonthTotal,
		CategoryBreakdown: s.CategoryBreakdown,
	}
}
