package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sakif/ecoguardian/internal/analytics"
	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/events"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
)

// GoalService manages reduction goals and evaluates them against the
// user's entries.
type GoalService struct {
	goals     repository.GoalRepository
	entries   repository.EntryRepository
	publisher events.Publisher
	logger    *slog.Logger
	now       Clock
}

func NewGoalService(
	goals repository.GoalRepository,
	entries repository.EntryRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *GoalService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &GoalService{
		goals:     goals,
		entries:   entries,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source and returns s.
func (s *GoalService) WithClock(now Clock) *GoalService {
	s.now = now
	return s
}

// Create stores a new goal. It becomes the user's active goal.
func (s *GoalService) Create(ctx context.Context, userID string, target float64, period model.Period) (*model.Goal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return nil, apperror.ValidationFailed("targetAmount", "target amount must be a finite number greater than zero")
	}
	if !period.Valid() {
		return nil, apperror.ValidationFailed("period", "period must be one of daily, weekly, monthly")
	}

	goal := &model.Goal{UserID: userID, TargetAmount: target, Period: period}
	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("service/goal: creating goal: %w", err)
	}

	s.logger.Info("goal created",
		slog.String("goalID", goal.ID),
		slog.String("userID", userID),
		slog.String("period", string(period)),
		slog.Float64("target", target),
	)

	if err := s.publisher.Publish(ctx, events.QueueGoalCreated, events.NewGoalCreated(*goal, s.now())); err != nil {
		s.logger.Warn("publishing goal event failed",
			slog.String("goalID", goal.ID),
			slog.String("error", err.Error()),
		)
	}

	return goal, nil
}

// List returns the user's goals, newest first.
func (s *GoalService) List(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	goals, err := s.goals.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/goal: listing goals: %w", err)
	}
	return goals, nil
}

// Active returns the newest goal, or nil when the user has none.
func (s *GoalService) Active(ctx context.Context, userID string) (*model.Goal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	goal, err := s.goals.ActiveGoal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/goal: getting active goal: %w", err)
	}
	return goal, nil
}

// Progress evaluates goalID, or the active goal when goalID is empty.
// Another user's goal is reported as not found.
func (s *GoalService) Progress(ctx context.Context, userID, goalID string) (model.GoalProgress, error) {
	if err := requireUser(userID); err != nil {
		return model.GoalProgress{}, err
	}

	goal, err := s.resolveGoal(ctx, userID, goalID)
	if err != nil {
		return model.GoalProgress{}, err
	}
	if goal == nil {
		return analytics.EvaluateGoal(nil, model.PeriodTotals{}), nil
	}

	entries, err := s.entries.ListEntriesByUser(ctx, userID)
	if err != nil {
		return model.GoalProgress{}, fmt.Errorf("service/goal: listing entries: %w", err)
	}
	return analytics.EvaluateGoal(goal, analytics.PeriodTotalsFor(entries, s.now())), nil
}

func (s *GoalService) resolveGoal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	if goalID == "" {
		return s.Active(ctx, userID)
	}

	goal, err := s.goals.GetGoalByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/goal: getting goal %s: %w", goalID, err)
	}
	if goal.UserID != userID {
		return nil, apperror.NotFound("goal", goalID)
	}
	return goal, nil
}
