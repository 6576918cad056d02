package analytics

import (
	"math"
	"time"

	"github.com/sakif/ecoguardian/internal/model"
)

// atTolerance is how close the total must be to the target to count as
// exactly at it.
const atTolerance = 1e-9

// PeriodTotalsFor computes the current total for every goal period:
// today so far, the trailing week as reported by Analyze, and the calendar
// month so far.
func PeriodTotalsFor(entries []model.CarbonEntry, now time.Time) model.PeriodTotals {
	today := sumWhere(entries, func(e model.CarbonEntry) bool {
		return within(e.Date, startOfDay(now), now)
	})
	thisWeek, _ := weekSums(entries, now)
	month := sumWhere(entries, func(e model.CarbonEntry) bool {
		return within(e.Date, startOfMonth(now), now)
	})

	return model.PeriodTotals{
		Daily:   today.InexactFloat64(),
		Weekly:  thisWeek.InexactFloat64(),
		Monthly: month.InexactFloat64(),
	}
}

// EvaluateGoal compares goal with the total of its period. A nil goal yields
// the no_goal marker rather than a zero-progress result.
func EvaluateGoal(goal *model.Goal, totals model.PeriodTotals) model.GoalProgress {
	if goal == nil {
		return model.GoalProgress{Status: model.GoalStatusNoGoal}
	}

	current := totals.For(goal.Period)
	target := goal.TargetAmount

	progress := 100.0
	if target > 0 {
		progress = math.Min(100, current/target*100)
	}

	status := model.GoalStatusOver
	switch {
	case math.Abs(current-target) <= atTolerance:
		status = model.GoalStatusAt
	case current < target:
		status = model.GoalStatusUnder
	}

	return model.GoalProgress{
		Goal:            goal,
		Status:          status,
		Period:          goal.Period,
		CurrentTotal:    current,
		TargetAmount:    target,
		ProgressPercent: progress,
		Remaining:       target - current,
	}
}
