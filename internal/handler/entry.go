package handler

import (
	"net/http"
	"time"

	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/auth"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/service"
)

// Open bounds for a range query with only one side given.
var (
	rangeMin = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	rangeMax = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

type EntryHandler struct {
	entries *service.EntryService
}

func NewEntryHandler(entries *service.EntryService) *EntryHandler {
	return &EntryHandler{entries: entries}
}

// createEntryRequest takes the date as a string so clients can send either
// a full timestamp or just the day.
type createEntryRequest struct {
	Category    model.Category `json:"category"`
	Amount      float64        `json:"amount"`
	Description string         `json:"description"`
	Date        *string        `json:"date,omitempty"`
}

// HandleCreate appends an entry.
//
// HTTP: POST /api/carbon-entries
// REQUEST BODY: {"category":"transportation","amount":12.5,"description":"commute","date":"2025-03-01"}
func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.CreateEntryInput{
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Date != nil {
		date, _, err := parseTime("date", *req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		in.Date = &date
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	entry, err := h.entries.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleList returns the user's entries, newest first. Optional start and
// end query parameters restrict the result to an inclusive range; a bare
// date as end covers that whole day.
//
// HTTP: GET /api/carbon-entries[?start=2025-03-01&end=2025-03-31]
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()
	startParam, endParam := q.Get("start"), q.Get("end")

	if startParam == "" && endParam == "" {
		entries, err := h.entries.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	start, end, err := parseRange(startParam, endParam)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.entries.ListRange(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func parseRange(startParam, endParam string) (time.Time, time.Time, error) {
	start, end := rangeMin, rangeMax

	if startParam != "" {
		t, _, err := parseTime("start", startParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if endParam != "" {
		t, dateOnly, err := parseTime("end", endParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperror.ValidationFailed("end", "end must not be before start")
	}
	return start, end, nil
}

// HandleStats backs GET /api/carbon-entries/stats.
func (h *EntryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	stats, err := h.entries.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleAnalytics backs GET /api/carbon-entries/analytics: the 30-day
// snapshot plus the insight sentences derived from it.
func (h *EntryHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	report, err := h.entries.Analytics(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleContext backs GET /api/carbon-entries/context, the summary handed
// to an external advice generator.
func (h *EntryHandler) HandleContext(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	ctx, err := h.entries.AdviceContext(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ctx)
}
