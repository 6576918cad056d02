package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sakif/ecoguardian/internal/model"
)

// Analyze computes the trailing-window analytics snapshot.
//
//   - the window runs from midnight WindowDays-1 days ago through now
//   - DailyTotals and CategoryTrends are sparse: days without entries are
//     left out, the rest are sorted by date ascending
//   - this week is (now-7d, now], last week is (now-14d, now-7d]
//   - WeekOverWeekChange is 0 when both weeks are empty and 100 when only
//     last week is
//   - TopCategory ranks the whole log, like Stats' CategoryBreakdown, and is
//     nil only without entries; ties go to the category listed first in
//     model.Categories
func Analyze(entries []model.CarbonEntry, now time.Time) model.AnalyticsSnapshot {
	loc := now.Location()
	start := windowStart(now)

	daily := make(map[string]decimal.Decimal)
	perCategory := make(map[model.Category]map[string]decimal.Decimal)
	categoryTotals := make(map[model.Category]decimal.Decimal)
	windowTotal := decimal.Zero

	for _, e := range entries {
		a := amountOf(e)
		categoryTotals[e.Category] = categoryTotals[e.Category].Add(a)
		if !within(e.Date, start, now) {
			continue
		}
		day := e.Date.In(loc).Format(dayLayout)

		daily[day] = daily[day].Add(a)
		if perCategory[e.Category] == nil {
			perCategory[e.Category] = make(map[string]decimal.Decimal)
		}
		perCategory[e.Category][day] = perCategory[e.Category][day].Add(a)
		windowTotal = windowTotal.Add(a)
	}

	trends := make(map[model.Category][]model.DailyAmount, len(perCategory))
	for c, days := range perCategory {
		trends[c] = sortedDays(days)
	}

	thisWeek, lastWeek := weekSums(entries, now)

	return model.AnalyticsSnapshot{
		DailyTotals:        sortedDays(daily),
		CategoryTrends:     trends,
		WeekOverWeekChange: weekOverWeek(thisWeek, lastWeek),
		ThisWeekTotal:      thisWeek.InexactFloat64(),
		LastWeekTotal:      lastWeek.InexactFloat64(),
		TopCategory:        topCategory(categoryTotals),
		TotalEntries:       len(entries),
		AverageDaily:       windowTotal.Div(decimal.NewFromInt(WindowDays)).InexactFloat64(),
	}
}

func weekSums(entries []model.CarbonEntry, now time.Time) (thisWeek, lastWeek decimal.Decimal) {
	weekAgo, twoWeeksAgo := now.Add(-week), now.Add(-2*week)
	thisWeek = sumWhere(entries, func(e model.CarbonEntry) bool {
		return e.Date.After(weekAgo) && !e.Date.After(now)
	})
	lastWeek = sumWhere(entries, func(e model.CarbonEntry) bool {
		return e.Date.After(twoWeeksAgo) && !e.Date.After(weekAgo)
	})
	return thisWeek, lastWeek
}

func weekOverWeek(thisWeek, lastWeek decimal.Decimal) float64 {
	if lastWeek.IsZero() {
		if thisWeek.IsZero() {
			return 0
		}
		return 100
	}
	this, last := thisWeek.InexactFloat64(), lastWeek.InexactFloat64()
	return (this - last) / last * 100
}

func topCategory(totals map[model.Category]decimal.Decimal) *model.CategoryAmount {
	var top *model.CategoryAmount
	var best decimal.Decimal
	for _, c := range model.Categories {
		sum, ok := totals[c]
		if !ok {
			continue
		}
		if top == nil || sum.GreaterThan(best) {
			best = sum
			top = &model.CategoryAmount{Category: c}
		}
	}
	if top != nil {
		top.Amount = best.InexactFloat64()
	}
	return top
}

// sortedDays flattens day buckets into a slice ordered by date. The layout
// is zero-padded, so string order is chronological order.
func sortedDays(days map[string]decimal.Decimal) []model.DailyAmount {
	out := make([]model.DailyAmount, 0, len(days))
	for day, sum := range days {
		out = append(out, model.DailyAmount{Date: day, Amount: sum.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
