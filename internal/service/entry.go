package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/ecoguardian/internal/analytics"
	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/events"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
)

// MaxDescriptionLength is counted in characters, not bytes.
const MaxDescriptionLength = 500

// CreateEntryInput is what a client supplies for a new entry. A nil Date
// means "now".
type CreateEntryInput struct {
	Category    model.Category
	Amount      float64
	Description string
	Date        *time.Time
}

// EntryService appends carbon entries and computes every view derived from
// a user's entry log.
type EntryService struct {
	repo      repository.EntryRepository
	publisher events.Publisher
	logger    *slog.Logger
	now       Clock
}

func NewEntryService(repo repository.EntryRepository, publisher events.Publisher, logger *slog.Logger) *EntryService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &EntryService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source and returns s.
func (s *EntryService) WithClock(now Clock) *EntryService {
	s.now = now
	return s
}

// Create validates in and appends it to the user's log. Invalid input is
// rejected before the store is touched.
func (s *EntryService) Create(ctx context.Context, userID string, in CreateEntryInput) (*model.CarbonEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validateEntry(&in); err != nil {
		return nil, err
	}

	entry := &model.CarbonEntry{
		UserID:      userID,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
	}
	if in.Date != nil {
		entry.Date = in.Date.UTC()
	} else {
		entry.Date = s.now().UTC()
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("service/entry: creating entry: %w", err)
	}

	s.logger.Info("carbon entry created",
		slog.String("entryID", entry.ID),
		slog.String("userID", userID),
		slog.String("category", string(entry.Category)),
		slog.Float64("amount", entry.Amount),
	)

	if err := s.publisher.Publish(ctx, events.QueueEntryCreated, events.NewEntryCreated(*entry, s.now())); err != nil {
		s.logger.Warn("publishing entry event failed",
			slog.String("entryID", entry.ID),
			slog.String("error", err.Error()),
		)
	}

	return entry, nil
}

func validateEntry(in *CreateEntryInput) error {
	if !in.Category.Valid() {
		return apperror.ValidationFailed("category",
			fmt.Sprintf("category must be one of %s", joinCategories()))
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return apperror.ValidationFailed("amount", "amount must be a finite number")
	}
	if in.Amount <= 0 {
		return apperror.ValidationFailed("amount", "amount must be greater than zero")
	}

	in.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or fewer", MaxDescriptionLength))
	}
	if in.Date != nil && in.Date.IsZero() {
		return apperror.ValidationFailed("date", "date must be a valid timestamp")
	}
	return nil
}

func joinCategories() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// List returns the user's entries, newest first.
func (s *EntryService) List(ctx context.Context, userID string) ([]model.CarbonEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/entry: listing entries: %w", err)
	}
	return entries, nil
}

// ListRange returns the user's entries with start <= date <= end.
func (s *EntryService) ListRange(ctx context.Context, userID string, start, end time.Time) ([]model.CarbonEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, apperror.ValidationFailed("end", "end must not be before start")
	}
	entries, err := s.repo.ListEntriesByUserInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("service/entry: listing entries in range: %w", err)
	}
	return entries, nil
}

func (s *EntryService) Stats(ctx context.Context, userID string) (model.StatsSnapshot, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return model.StatsSnapshot{}, err
	}
	return analytics.Stats(entries, s.now()), nil
}

// Analytics returns the trailing-window snapshot with its insight messages.
func (s *EntryService) Analytics(ctx context.Context, userID string) (model.AnalyticsReport, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return model.AnalyticsReport{}, err
	}
	snapshot := analytics.Analyze(entries, s.now())
	return model.AnalyticsReport{
		AnalyticsSnapshot: snapshot,
		Insights:          analytics.Insights(snapshot),
	}, nil
}

// AdviceContext returns the summary handed to the external advice service.
func (s *EntryService) AdviceContext(ctx context.Context, userID string) (model.AdviceContext, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return model.AdviceContext{}, err
	}
	return analytics.AdviceContext(entries, s.now()), nil
}
