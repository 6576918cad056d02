// Package service holds the business rules between the HTTP handlers and the
// repositories.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates input, scopes data to the user, orchestrates
//	Repository      → reads and writes records
//
// Services take repository interfaces, never a concrete store, so the same
// code runs against the in-memory store in tests and SQL in production. They
// return apperror values and never HTTP status codes; the CLI report command
// calls them directly.
package service

import (
	"time"

	"github.com/sakif/ecoguardian/internal/apperror"
)

// Clock returns the current time. Services read "now" through it so tests
// can pin the calendar.
type Clock func() time.Time

func requireUser(userID string) error {
	if userID == "" {
		return apperror.Unauthorized("authentication required")
	}
	return nil
}
