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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, password_hash, github_id, created_at`

// CreateUser inserts a password-based account. The UNIQUE index on username
// decides races between two signups with the same name; the loser gets
// apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = fromMillis(toMillis(time.Now()))

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.GitHubID,
		toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username", user.Username)
		}
		return fmt.Errorf("sqldb: inserting user %q: %w", user.Username, err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqldb: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername matches case-insensitively (NOCASE column on SQLite,
// the default collation on MySQL).
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqldb: getting user %q: %w", username, err)
	}
	return u, nil
}

// UpsertGitHubUser returns the existing account linked to user.GitHubID, or
// creates one. An existing account keeps its original username even if the
// GitHub login changed since.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("githubId", "GitHub ID is required")
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, user.GitHubID)

	existing, err := scanUser(row)
	switch {
	case err == nil:
		*user = *existing
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("sqldb: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	return db.CreateUser(ctx, user)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.GitHubID, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}
