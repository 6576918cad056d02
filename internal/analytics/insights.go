package analytics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sakif/ecoguardian/internal/model"
)

// stableBand is the week-over-week change, in percent, below which emissions
// are reported as stable.
const stableBand = 10

// Insights turns a snapshot into short messages for the dashboard. The
// week-over-week message is always first; the category message follows
// whenever there is a top category and the projection only when the window
// has data.
func Insights(s model.AnalyticsSnapshot) []string {
	var out []string

	switch {
	case s.WeekOverWeekChange < -stableBand:
		out = append(out, fmt.Sprintf(
			"Great progress! You've reduced emissions by %.1f%% this week.", -s.WeekOverWeekChange))
	case s.WeekOverWeekChange > stableBand:
		out = append(out, fmt.Sprintf(
			"Emissions increased by %.1f%% this week. Consider reviewing your recent activities.", s.WeekOverWeekChange))
	default:
		out = append(out, "Your emissions are stable week-over-week. Keep up the consistency!")
	}

	if s.TopCategory != nil {
		out = append(out, fmt.Sprintf(
			"%s is your largest impact category at %.0f%% of total emissions.",
			capitalize(string(s.TopCategory.Category)), categoryShare(s)))
	}

	if s.AverageDaily > 0 {
		out = append(out, fmt.Sprintf(
			"At your current rate, you're on track for %.1f kg CO₂ this month.", s.AverageDaily*WindowDays))
	}

	return out
}

// categoryShare is the top category's amount as a percentage of the window
// total. TopCategory ranks the whole log, so its amount can exceed the window
// total (or the window can be empty); the share is then capped at 100.
func categoryShare(s model.AnalyticsSnapshot) float64 {
	top := decimal.NewFromFloat(s.TopCategory.Amount)
	windowTotal := sumDays(s.DailyTotals)
	if !windowTotal.GreaterThan(top) {
		return 100
	}
	return top.Div(windowTotal).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func sumDays(days []model.DailyAmount) decimal.Decimal {
	total := decimal.Zero
	for _, d := range days {
		total = total.Add(decimal.NewFromFloat(d.Amount))
	}
	return total
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
