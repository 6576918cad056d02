package model

import "time"

// Period is the time span a reduction goal applies to.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Goal is a reduction target: emit at most TargetAmount kg CO₂ per Period.
// Goals are immutable; the most recently created one is the active goal.
type Goal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	TargetAmount float64   `json:"targetAmount"`
	Period       Period    `json:"period"`
	CreatedAt    time.Time `json:"createdAt"`
}
