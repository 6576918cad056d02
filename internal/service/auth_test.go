package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/auth"
	"github.com/sakif/ecoguardian/internal/repository/memory"
)

func newTestAuthService(t *testing.T) (*AuthService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)
	svc := NewAuthService(memory.New(), tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), discardLogger())
	return svc, tokens
}

func TestSignup(t *testing.T) {
	svc, tokens := newTestAuthService(t)

	res, err := svc.Signup(context.Background(), "  alice ", "s3cret-pass")
	require.NoError(t, err)

	assert.Equal(t, "alice", res.User.Username)
	assert.NotEqual(t, "s3cret-pass", res.User.PasswordHash)

	userID, err := tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Signup(context.Background(), "alice", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "ALICE", "another-pass")
	assert.True(t, errors.Is(err, apperror.ErrConflict), "error = %v, want ErrConflict", err)
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		field    string
	}{
		{"empty username", "   ", "s3cret-pass", "username"},
		{"long username", strings.Repeat("u", MaxUsernameLength+1), "s3cret-pass", "username"},
		{"short password", "alice", "short", "password"},
		{"long password", "alice", strings.Repeat("p", MaxPasswordLength+1), "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAuthService(t)

			_, err := svc.Signup(context.Background(), tt.username, tt.password)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr), "error = %v", err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	signed, err := svc.Signup(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "Alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	_, wrongPass := svc.Login(ctx, "alice", "not-the-pass")
	_, unknownUser := svc.Login(ctx, "bob", "s3cret-pass")

	assert.True(t, errors.Is(wrongPass, apperror.ErrUnauthorized))
	assert.True(t, errors.Is(unknownUser, apperror.ErrUnauthorized))
	assert.Equal(t, wrongPass.Error(), unknownUser.Error(), "must not reveal which part was wrong")

	_, err = svc.Login(ctx, "", "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 583231, Login: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, "octocat", first.User.Username)

	again, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 583231, Login: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)

	// A GitHub account has no password to log in with.
	_, err = svc.Login(ctx, "octocat", "anything-at-all")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = svc.LoginOrRegisterGitHub(ctx, nil)
	assert.Error(t, err)
}

func TestLoginOrRegisterGitHubUsernameTaken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "octocat", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 1, Login: "octocat"})
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestGetUserByID(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.GetUserByID(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = svc.GetUserByID(ctx, "")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}
