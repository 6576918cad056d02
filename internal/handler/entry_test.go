package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ecoguardian/internal/model"
)

func TestCreateEntry(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/carbon-entries",
		`{"category":"transportation","amount":12.5,"description":"commute"}`, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	entry := decode[model.CarbonEntry](t, rec)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, model.CategoryTransportation, entry.Category)
	assert.InDelta(t, 12.5, entry.Amount, 1e-9)
	assert.True(t, entry.Date.Equal(fixedNow), "date = %v, want %v", entry.Date, fixedNow)
}

func TestCreateEntryDateForms(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		date string
		want time.Time
	}{
		{"2025-03-01", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-03-01T08:30:00Z", time.Date(2025, time.March, 1, 8, 30, 0, 0, time.UTC)},
		{"2025-03-01T08:30:00+02:00", time.Date(2025, time.March, 1, 6, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/carbon-entries",
				`{"category":"food","amount":1,"date":"`+tt.date+`"}`, "u1")
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			got := decode[model.CarbonEntry](t, rec).Date
			assert.True(t, got.Equal(tt.want), "date = %v, want %v", got, tt.want)
		})
	}
}

func TestCreateEntryRejectsInvalidInput(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown category", `{"category":"travel","amount":1}`, "category"},
		{"zero amount", `{"category":"food","amount":0}`, "amount"},
		{"negative amount", `{"category":"food","amount":-2}`, "amount"},
		{"bad date", `{"category":"food","amount":1,"date":"yesterday"}`, "date"},
		{"amount as string", `{"category":"food","amount":"3"}`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/carbon-entries", tt.body, "u1")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, "validation_error", resp.Error)
			assert.Equal(t, tt.field, resp.Field)
		})
	}

	list := api.do(t, http.MethodGet, "/api/carbon-entries", "", "u1")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Empty(t, decode[[]model.CarbonEntry](t, list))
}

func TestListEntries(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, body := range []string{
		`{"category":"food","amount":1,"date":"2025-02-28T23:59:59Z"}`,
		`{"category":"food","amount":2,"date":"2025-03-01T00:00:00Z"}`,
		`{"category":"energy","amount":3,"date":"2025-03-05T23:30:00Z"}`,
		`{"category":"energy","amount":4,"date":"2025-03-06T00:00:00Z"}`,
	} {
		require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/carbon-entries", body, "u1").Code)
	}
	require.Equal(t, http.StatusCreated,
		api.do(t, http.MethodPost, "/api/carbon-entries", `{"category":"food","amount":9}`, "u2").Code)

	t.Run("all newest first", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/carbon-entries", "", "u1")
		require.Equal(t, http.StatusOK, rec.Code)
		entries := decode[[]model.CarbonEntry](t, rec)
		require.Len(t, entries, 4)
		assert.InDelta(t, 4, entries[0].Amount, 1e-9)
		assert.InDelta(t, 1, entries[3].Amount, 1e-9)
	})

	t.Run("date-only end covers the day", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/carbon-entries?start=2025-03-01&end=2025-03-05", "", "u1")
		require.Equal(t, http.StatusOK, rec.Code)
		entries := decode[[]model.CarbonEntry](t, rec)
		require.Len(t, entries, 2)
		assert.InDelta(t, 3, entries[0].Amount, 1e-9)
		assert.InDelta(t, 2, entries[1].Amount, 1e-9)
	})

	t.Run("open start", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/carbon-entries?end=2025-03-01T00:00:00Z", "", "u1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]model.CarbonEntry](t, rec), 2)
	})

	t.Run("open end", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/carbon-entries?start=2025-03-06", "", "u1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]model.CarbonEntry](t, rec), 1)
	})

	t.Run("invalid start", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/carbon-entries?start=03/01/2025", "", "u1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "start", decode[ErrorResponse](t, rec).Field)
	})

	t.Run("end before start", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/carbon-entries?start=2025-03-05&end=2025-03-01", "", "u1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "end", decode[ErrorResponse](t, rec).Field)
	})
}

func TestStatsAnalyticsAndContext(t *testing.T) {
	api := newTestAPI(t, nil)

	// fixedNow is 2025-03-17 12:00 UTC.
	for _, body := range []string{
		`{"category":"transportation","amount":10,"date":"2025-03-16T09:00:00Z"}`,
		`{"category":"food","amount":5,"date":"2025-03-08T09:00:00Z"}`,
		`{"category":"energy","amount":20,"date":"2025-02-20T09:00:00Z"}`,
	} {
		require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/carbon-entries", body, "u1").Code)
	}

	rec := api.do(t, http.MethodGet, "/api/carbon-entries/stats", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[model.StatsSnapshot](t, rec)
	assert.InDelta(t, 35, stats.Total, 1e-9)
	assert.InDelta(t, 15, stats.MonthTotal, 1e-9)
	assert.Equal(t, 3, stats.EntryCount)
	assert.InDelta(t, 20, stats.CategoryBreakdown[model.CategoryEnergy], 1e-9)

	rec = api.do(t, http.MethodGet, "/api/carbon-entries/analytics", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[model.AnalyticsReport](t, rec)
	assert.InDelta(t, 10, report.ThisWeekTotal, 1e-9)
	assert.InDelta(t, 5, report.LastWeekTotal, 1e-9)
	assert.InDelta(t, 100, report.WeekOverWeekChange, 1e-9)
	require.NotNil(t, report.TopCategory)
	assert.Equal(t, model.CategoryEnergy, report.TopCategory.Category)
	assert.Len(t, report.DailyTotals, 3)
	require.NotEmpty(t, report.Insights)
	assert.Contains(t, report.Insights[0], "Emissions increased by 100.0%")

	rec = api.do(t, http.MethodGet, "/api/carbon-entries/context", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	advice := decode[model.AdviceContext](t, rec)
	assert.InDelta(t, 35, advice.TotalCarbon, 1e-9)
	assert.InDelta(t, 15, advice.MonthCarbon, 1e-9)
}

func TestAnalyticsForNewUser(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/carbon-entries/analytics", "", "fresh")
	require.Equal(t, http.StatusOK, rec.Code)

	raw := decode[map[string]any](t, rec)
	assert.Nil(t, raw["topCategory"])
	assert.Equal(t, float64(0), raw["weekOverWeekChange"])
	assert.Equal(t, []any{"Your emissions are stable week-over-week. Keep up the consistency!"}, raw["insights"])
}
