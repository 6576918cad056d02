// Package repository defines the storage contracts used by the service layer.
//
// Two implementations exist: memory.Store (maps behind a mutex, used in tests
// and for throwaway instances) and sqldb.DB (SQLite or MySQL). Services only
// ever see these interfaces, so the backing store is chosen once in the
// server wiring.
package repository

import (
	"context"
	"time"

	"github.com/sakif/ecoguardian/internal/model"
)

type UserRepository interface {
	// CreateUser assigns an ID and CreatedAt. A taken username returns an
	// apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHubUser finds the account linked to user.GitHubID or creates
	// one, filling user in place either way.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

// EntryRepository is the append-only carbon entry log.
//
// Lists are ordered by Date descending (ties: most recently inserted first)
// and are empty, not an error, for users without entries. User IDs are not
// checked against the users table.
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry *model.CarbonEntry) error
	ListEntriesByUser(ctx context.Context, userID string) ([]model.CarbonEntry, error)
	// ListEntriesByUserInRange keeps entries with start <= Date <= end.
	ListEntriesByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]model.CarbonEntry, error)
}

// GoalRepository stores reduction goals, newest first.
type GoalRepository interface {
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoalByID(ctx context.Context, id string) (*model.Goal, error)
	ListGoalsByUser(ctx context.Context, userID string) ([]model.Goal, error)
	// ActiveGoal returns the most recently created goal, or nil when the
	// user has none.
	ActiveGoal(ctx context.Context, userID string) (*model.Goal, error)
}

// Store bundles every repository behind one closable handle.
type Store interface {
	UserRepository
	EntryRepository
	GoalRepository
	Close() error
}
