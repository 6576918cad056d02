// Package events publishes domain events about new carbon entries and goals
// so other services (notifications, reporting) can react without polling the
// store.
//
// Publishing is best effort. The request that created the entry has already
// succeeded by the time an event goes out, so callers log a failed publish
// and move on.
package events

import (
	"context"
	"time"

	"github.com/sakif/ecoguardian/internal/model"
)

// Queue names. Each event type gets its own durable queue and is published
// on the default exchange with the queue name as routing key.
const (
	QueueEntryCreated = "carbon.entry.created"
	QueueGoalCreated  = "carbon.goal.created"
)

// Queues lists every queue the publisher declares at startup.
var Queues = []string{QueueEntryCreated, QueueGoalCreated}

// Publisher sends an event payload to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
	Close() error
}

// EntryCreated is emitted after a carbon entry has been stored.
type EntryCreated struct {
	EntryID    string         `json:"entryId"`
	UserID     string         `json:"userId"`
	Category   model.Category `json:"category"`
	Amount     float64        `json:"amount"`
	Date       time.Time      `json:"date"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewEntryCreated builds the event for a stored entry.
func NewEntryCreated(e model.CarbonEntry, now time.Time) EntryCreated {
	return EntryCreated{
		EntryID:    e.ID,
		UserID:     e.UserID,
		Category:   e.Category,
		Amount:     e.Amount,
		Date:       e.Date,
		OccurredAt: now.UTC(),
	}
}

// GoalCreated is emitted after a reduction goal has been stored.
type GoalCreated struct {
	GoalID       string       `json:"goalId"`
	UserID       string       `json:"userId"`
	TargetAmount float64      `json:"targetAmount"`
	Period       model.Period `json:"period"`
	OccurredAt   time.Time    `json:"occurredAt"`
}

func NewGoalCreated(g model.Goal, now time.Time) GoalCreated {
	return GoalCreated{
		GoalID:       g.ID,
		UserID:       g.UserID,
		TargetAmount: g.TargetAmount,
		Period:       g.Period,
		OccurredAt:   now.UTC(),
	}
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error { return nil }
