package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fixedNow is a Monday noon, so "this week" and "this month" both hold
// several days of history.
var fixedNow = time.Date(2025, time.March, 17, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher remembers which queues were published to.
type recordingPublisher struct {
	mu       sync.Mutex
	queues   []string
	payloads []any
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, queue string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.queues = append(p.queues, queue)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queues...)
}

// failingEntryRepo simulates a store that is down.
type failingEntryRepo struct{}

var _ repository.EntryRepository = failingEntryRepo{}

var errStoreDown = errors.New("store is down")

func (failingEntryRepo) CreateEntry(context.Context, *model.CarbonEntry) error { return errStoreDown }

func (failingEntryRepo) ListEntriesByUser(context.Context, string) ([]model.CarbonEntry, error) {
	return nil, errStoreDown
}

func (failingEntryRepo) ListEntriesByUserInRange(context.Context, string, time.Time, time.Time) ([]model.CarbonEntry, error) {
	return nil, errStoreDown
}
