package model

// The types in this file are derived views. They are recomputed from the
// entry log on every request and never stored.

// StatsSnapshot holds running totals over a user's whole entry log.
type StatsSnapshot struct {
	Total             float64              `json:"total"`
	MonthTotal        float64              `json:"monthTotal"`
	CategoryBreakdown map[Category]float64 `json:"categoryBreakdown"`
	EntryCount        int                  `json:"entryCount"`
}

// DailyAmount is the summed amount for one calendar day (YYYY-MM-DD).
type DailyAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// CategoryAmount pairs a category with a summed amount.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
}

// AnalyticsSnapshot holds the trailing-window series and trend figures.
// TopCategory is nil when there is nothing to rank.
type AnalyticsSnapshot struct {
	DailyTotals        []DailyAmount              `json:"dailyTotals"`
	CategoryTrends     map[Category][]DailyAmount `json:"categoryTrends"`
	WeekOverWeekChange float64                    `json:"weekOverWeekChange"`
	ThisWeekTotal      float64                    `json:"thisWeekTotal"`
	LastWeekTotal      float64                    `json:"lastWeekTotal"`
	TopCategory        *CategoryAmount            `json:"topCategory"`
	TotalEntries       int                        `json:"totalEntries"`
	AverageDaily       float64                    `json:"averageDaily"`
}

// PeriodTotals are the current totals a goal of each period is compared to.
type PeriodTotals struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

// For returns the total matching period p.
func (t PeriodTotals) For(p Period) float64 {
	switch p {
	case PeriodDaily:
		return t.Daily
	case PeriodWeekly:
		return t.Weekly
	default:
		return t.Monthly
	}
}

// GoalStatus describes where the current total sits relative to a target.
type GoalStatus string

const (
	GoalStatusUnder  GoalStatus = "under"
	GoalStatusAt     GoalStatus = "at"
	GoalStatusOver   GoalStatus = "over"
	GoalStatusNoGoal GoalStatus = "no_goal"
)

// GoalProgress compares a goal with the total of its period.
//
// When the user has no goal, Goal is nil and Status is GoalStatusNoGoal so a
// client can render an empty state instead of "0% progress".
type GoalProgress struct {
	Goal            *Goal      `json:"goal"`
	Status          GoalStatus `json:"status"`
	Period          Period     `json:"period,omitempty"`
	CurrentTotal    float64    `json:"currentTotal"`
	TargetAmount    float64    `json:"targetAmount"`
	ProgressPercent float64    `json:"progressPercent"`
	Remaining       float64    `json:"remaining"`
}

// AdviceContext is the summary handed to the external advice collaborator.
type AdviceContext struct {
	TotalCarbon       float64              `json:"totalCarbon"`
	MonthCarbon       float64              `json:"monthCarbon"`
	CategoryBreakdown map[Category]float64 `json:"categoryBreakdown"`
}

// AnalyticsReport is an analytics snapshot together with the insight
// messages derived from it. The snapshot fields are inlined in JSON.
type AnalyticsReport struct {
	AnalyticsSnapshot
	Insights []string `json:"insights"`
}
