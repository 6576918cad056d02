// Package memory implements the repository interfaces with in-process maps.
//
// Nothing survives a restart, which makes it the natural backend for tests
// and demo instances. All methods are safe for concurrent use: reads share an
// RWMutex read lock and every append happens under the write lock, so a
// concurrent aggregation sees an entry either completely or not at all.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store is a map-backed repository.Store.
type Store struct {
	mu      sync.RWMutex
	users   map[string]model.User
	entries map[string]model.CarbonEntry
	goals   map[string]model.Goal
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]model.User),
		entries: make(map[string]model.CarbonEntry),
		goals:   make(map[string]model.Goal),
	}
}

// Close is a no-op; it exists so Store satisfies repository.Store.
func (s *Store) Close() error { return nil }

// =========================================================================
// USERS
// =========================================================================

// CreateUser assigns an ID and rejects a username that is already taken,
// ignoring case.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(user.Username) {
		return apperror.Conflict("username", user.Username)
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

// GetUserByID returns apperror.ErrNotFound for an unknown ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

// GetUserByUsername matches case-insensitively.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			found := u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

// UpsertGitHubUser returns the account linked to user.GitHubID, creating it
// on first login.
func (s *Store) UpsertGitHubUser(_ context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("githubId", "GitHub ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.GitHubID == user.GitHubID {
			*user = u
			return nil
		}
	}

	if s.usernameTaken(user.Username) {
		return apperror.Conflict("username", user.Username)
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

// usernameTaken must be called with s.mu held.
func (s *Store) usernameTaken(username string) bool {
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

// =========================================================================
// ENTRIES
// =========================================================================

// CreateEntry appends an entry. A zero Date means now.
func (s *Store) CreateEntry(_ context.Context, entry *model.CarbonEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = xid.New().String()
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	s.entries[entry.ID] = *entry
	return nil
}

// ListEntriesByUser returns the user's entries, newest first.
func (s *Store) ListEntriesByUser(_ context.Context, userID string) ([]model.CarbonEntry, error) {
	return s.filterEntries(func(e model.CarbonEntry) bool {
		return e.UserID == userID
	}), nil
}

// ListEntriesByUserInRange returns entries with start <= date <= end.
func (s *Store) ListEntriesByUserInRange(_ context.Context, userID string, start, end time.Time) ([]model.CarbonEntry, error) {
	return s.filterEntries(func(e model.CarbonEntry) bool {
		return e.UserID == userID && !e.Date.Before(start) && !e.Date.After(end)
	}), nil
}

func (s *Store) filterEntries(keep func(model.CarbonEntry) bool) []model.CarbonEntry {
	s.mu.RLock()
	out := make([]model.CarbonEntry, 0)
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// =========================================================================
// GOALS
// =========================================================================

// CreateGoal stores a goal under a fresh ID.
func (s *Store) CreateGoal(_ context.Context, goal *model.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal.ID = xid.New().String()
	goal.CreatedAt = time.Now().UTC()
	s.goals[goal.ID] = *goal
	return nil
}

// GetGoalByID returns apperror.ErrNotFound for an unknown ID.
func (s *Store) GetGoalByID(_ context.Context, id string) (*model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[id]
	if !ok {
		return nil, apperror.NotFound("goal", id)
	}
	return &g, nil
}

// ListGoalsByUser returns the user's goals, newest first.
func (s *Store) ListGoalsByUser(_ context.Context, userID string) ([]model.Goal, error) {
	s.mu.RLock()
	out := make([]model.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ActiveGoal returns the newest goal, or nil when the user has none.
func (s *Store) ActiveGoal(ctx context.Context, userID string) (*model.Goal, error) {
	goals, err := s.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}
	return &goals[0], nil
}
