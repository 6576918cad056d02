// Package repotest holds the behavioural contract every repository.Store
// implementation must satisfy. Backend packages call Run from their own
// tests so the memory and SQL stores are checked against the same cases.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) repository.Store

// base is millisecond-aligned so SQL backends round-trip it exactly.
var base = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// Run executes the whole contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateEntryAssignsIDAndDefaultsDate", func(t *testing.T) { testCreateEntry(t, newStore(t)) })
	t.Run("CreateEntryKeepsExplicitDate", func(t *testing.T) { testCreateEntryExplicitDate(t, newStore(t)) })
	t.Run("ListEntriesNewestFirst", func(t *testing.T) { testListEntriesOrder(t, newStore(t)) })
	t.Run("ListEntriesUnknownUserIsEmpty", func(t *testing.T) { testListEntriesUnknownUser(t, newStore(t)) })
	t.Run("ListEntriesInRangeInclusive", func(t *testing.T) { testListEntriesInRange(t, newStore(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore(t)) })
	t.Run("GoalsNewestFirst", func(t *testing.T) { testGoalsOrder(t, newStore(t)) })
	t.Run("ActiveGoalAbsent", func(t *testing.T) { testActiveGoalAbsent(t, newStore(t)) })
	t.Run("GetGoalByIDNotFound", func(t *testing.T) { testGetGoalNotFound(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("UpsertGitHubUser", func(t *testing.T) { testUpsertGitHubUser(t, newStore(t)) })
	t.Run("UpsertGitHubUserRequiresID", func(t *testing.T) { testUpsertGitHubUserRequiresID(t, newStore(t)) })
}

func addEntry(t *testing.T, s repository.Store, userID string, c model.Category, amount float64, date time.Time) model.CarbonEntry {
	t.Helper()
	e := &model.CarbonEntry{UserID: userID, Category: c, Amount: amount, Date: date}
	require.NoError(t, s.CreateEntry(context.Background(), e))
	return *e
}

func testCreateEntry(t *testing.T, s repository.Store) {
	before := time.Now().Add(-time.Second)

	e := &model.CarbonEntry{
		UserID:      "u1",
		Category:    model.CategoryFood,
		Amount:      2.5,
		Description: "lunch",
	}
	require.NoError(t, s.CreateEntry(context.Background(), e))

	assert.NotEmpty(t, e.ID)
	assert.True(t, e.Date.After(before), "Date should default to now, got %v", e.Date)

	list, err := s.ListEntriesByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
	assert.Equal(t, model.CategoryFood, list[0].Category)
	assert.InDelta(t, 2.5, list[0].Amount, 1e-9)
	assert.Equal(t, "lunch", list[0].Description)
}

func testCreateEntryExplicitDate(t *testing.T, s repository.Store) {
	e := addEntry(t, s, "u1", model.CategoryEnergy, 4, base)

	list, err := s.ListEntriesByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Date.Equal(base), "Date = %v, want %v", list[0].Date, base)
	assert.Equal(t, e.ID, list[0].ID)
}

func testListEntriesOrder(t *testing.T, s repository.Store) {
	oldest := addEntry(t, s, "u1", model.CategoryFood, 1, base.Add(-48*time.Hour))
	newest := addEntry(t, s, "u1", model.CategoryFood, 3, base)
	middle := addEntry(t, s, "u1", model.CategoryFood, 2, base.Add(-24*time.Hour))
	addEntry(t, s, "u2", model.CategoryFood, 9, base)

	list, err := s.ListEntriesByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID},
		[]string{list[0].ID, list[1].ID, list[2].ID})
}

func testListEntriesUnknownUser(t *testing.T, s repository.Store) {
	list, err := s.ListEntriesByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	ranged, err := s.ListEntriesByUserInRange(context.Background(), "nobody", base.Add(-time.Hour), base)
	require.NoError(t, err)
	assert.Empty(t, ranged)
}

func testListEntriesInRange(t *testing.T, s repository.Store) {
	start := base.Add(-24 * time.Hour)
	end := base

	addEntry(t, s, "u1", model.CategoryFood, 1, start.Add(-time.Millisecond))
	atStart := addEntry(t, s, "u1", model.CategoryFood, 2, start)
	inside := addEntry(t, s, "u1", model.CategoryFood, 3, start.Add(time.Hour))
	atEnd := addEntry(t, s, "u1", model.CategoryFood, 4, end)
	addEntry(t, s, "u1", model.CategoryFood, 5, end.Add(time.Millisecond))

	list, err := s.ListEntriesByUserInRange(context.Background(), "u1", start, end)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{atEnd.ID, inside.ID, atStart.ID},
		[]string{list[0].ID, list[1].ID, list[2].ID})
}

func testConcurrentAppends(t *testing.T, s repository.Store) {
	const writers, perWriter = 8, 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				e := &model.CarbonEntry{UserID: "u1", Category: model.CategoryEnergy, Amount: 1, Date: base}
				assert.NoError(t, s.CreateEntry(context.Background(), e))
			}
		}()
	}
	wg.Wait()

	list, err := s.ListEntriesByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, writers*perWriter)
}

func testGoalsOrder(t *testing.T, s repository.Store) {
	ctx := context.Background()

	first := &model.Goal{UserID: "u1", TargetAmount: 100, Period: model.PeriodMonthly}
	require.NoError(t, s.CreateGoal(ctx, first))
	second := &model.Goal{UserID: "u1", TargetAmount: 10, Period: model.PeriodDaily}
	require.NoError(t, s.CreateGoal(ctx, second))
	require.NoError(t, s.CreateGoal(ctx, &model.Goal{UserID: "u2", TargetAmount: 5, Period: model.PeriodWeekly}))

	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	goals, err := s.ListGoalsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, second.ID, goals[0].ID)
	assert.Equal(t, first.ID, goals[1].ID)

	active, err := s.ActiveGoal(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, model.PeriodDaily, active.Period)

	byID, err := s.GetGoalByID(ctx, first.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, byID.TargetAmount, 1e-9)
}

func testActiveGoalAbsent(t *testing.T, s repository.Store) {
	active, err := s.ActiveGoal(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, active)

	goals, err := s.ListGoalsByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func testGetGoalNotFound(t *testing.T, s repository.Store) {
	_, err := s.GetGoalByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "error = %v, want ErrNotFound", err)
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u := &model.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "hash", byID.PasswordHash)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	err = s.CreateUser(ctx, &model.User{Username: "alice", PasswordHash: "other"})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "duplicate username error = %v, want ErrConflict", err)

	_, err = s.GetUserByID(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "error = %v, want ErrNotFound", err)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "error = %v, want ErrNotFound", err)
}

func testUpsertGitHubUser(t *testing.T, s repository.Store) {
	ctx := context.Background()

	first := &model.User{Username: "octocat", GitHubID: 583231}
	require.NoError(t, s.UpsertGitHubUser(ctx, first))
	assert.NotEmpty(t, first.ID)

	again := &model.User{Username: "octocat-renamed", GitHubID: 583231}
	require.NoError(t, s.UpsertGitHubUser(ctx, again))
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "octocat", again.Username)

	require.NoError(t, s.CreateUser(ctx, &model.User{Username: "taken", PasswordHash: "x"}))
	err := s.UpsertGitHubUser(ctx, &model.User{Username: "taken", GitHubID: 42})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "error = %v, want ErrConflict", err)
}

// A zero GitHub ID is what every password account stores, so it must never
// match one of them.
func testUpsertGitHubUserRequiresID(t *testing.T, s repository.Store) {
	ctx := context.Background()

	pw := &model.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, pw))

	u := &model.User{Username: "ghost"}
	err := s.UpsertGitHubUser(ctx, u)
	assert.True(t, errors.Is(err, apperror.ErrValidation), "error = %v, want ErrValidation", err)
	assert.Empty(t, u.ID)
	assert.Equal(t, "ghost", u.Username)

	_, err = s.GetUserByUsername(ctx, "ghost")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "error = %v, want ErrNotFound", err)
}
