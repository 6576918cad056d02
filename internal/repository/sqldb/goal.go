package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
)

var _ repository.GoalRepository = (*DB)(nil)

const goalColumns = `id, user_id, target_amount, period, created_at`

// CreateGoal inserts a goal under a fresh ID.
func (db *DB) CreateGoal(ctx context.Context, goal *model.Goal) error {
	goal.ID = xid.New().String()
	goal.CreatedAt = fromMillis(toMillis(time.Now()))

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?)`,
		goal.ID,
		goal.UserID,
		goal.TargetAmount,
		string(goal.Period),
		toMillis(goal.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqldb: inserting goal for user %s: %w", goal.UserID, err)
	}
	return nil
}

// GetGoalByID returns apperror.ErrNotFound for an unknown ID.
func (db *DB) GetGoalByID(ctx context.Context, id string) (*model.Goal, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)

	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("goal", id)
		}
		return nil, fmt.Errorf("sqldb: getting goal %s: %w", id, err)
	}
	return g, nil
}

// ListGoalsByUser returns the user's goals, newest first.
func (db *DB) ListGoalsByUser(ctx context.Context, userID string) ([]model.Goal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing goals: %w", err)
	}
	defer rows.Close()

	goals := make([]model.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqldb: scanning goal: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating goals: %w", err)
	}
	return goals, nil
}

// ActiveGoal returns the most recently created goal, or nil when the user
// has none.
func (db *DB) ActiveGoal(ctx context.Context, userID string) (*model.Goal, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		userID,
	)

	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqldb: getting active goal for user %s: %w", userID, err)
	}
	return g, nil
}

func scanGoal(s scanner) (*model.Goal, error) {
	var (
		g         model.Goal
		period    string
		createdAt int64
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.TargetAmount, &period, &createdAt); err != nil {
		return nil, err
	}
	g.Period = model.Period(period)
	g.CreatedAt = fromMillis(createdAt)
	return &g, nil
}
