// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either by username/password signup or on the first
// GitHub login. GitHubID is 0 for accounts that never linked GitHub.
//
// PasswordHash is tagged `json:"-"` so it can never leak through an API
// response, even if a handler serializes the whole struct by mistake.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"githubId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
