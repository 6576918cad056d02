package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ecoguardian/internal/model"
)

func TestActiveGoalNullWhenNone(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/goals/active", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", trimNewline(rec.Body.String()))

	rec = api.do(t, http.MethodGet, "/api/goals/progress", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[model.GoalProgress](t, rec)
	assert.Equal(t, model.GoalStatusNoGoal, progress.Status)
	assert.Nil(t, progress.Goal)
}

func TestGoalLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/goals", `{"targetAmount":100,"period":"monthly"}`, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	monthly := decode[model.Goal](t, rec)
	assert.Equal(t, model.PeriodMonthly, monthly.Period)

	rec = api.do(t, http.MethodPost, "/api/goals", `{"targetAmount":4,"period":"daily"}`, "u1")
	require.Equal(t, http.StatusCreated, rec.Code)
	daily := decode[model.Goal](t, rec)

	// 2025-03-17 is fixedNow's day; 2025-03-10 is in the same month only.
	for _, body := range []string{
		`{"category":"food","amount":5,"date":"2025-03-17T08:00:00Z"}`,
		`{"category":"food","amount":20,"date":"2025-03-10T08:00:00Z"}`,
	} {
		require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/carbon-entries", body, "u1").Code)
	}

	rec = api.do(t, http.MethodGet, "/api/goals", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	goals := decode[[]model.Goal](t, rec)
	require.Len(t, goals, 2)
	assert.Equal(t, daily.ID, goals[0].ID)

	rec = api.do(t, http.MethodGet, "/api/goals/active", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, daily.ID, decode[model.Goal](t, rec).ID)

	rec = api.do(t, http.MethodGet, "/api/goals/progress", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[model.GoalProgress](t, rec)
	assert.Equal(t, model.GoalStatusOver, progress.Status)
	assert.InDelta(t, 5, progress.CurrentTotal, 1e-9)
	assert.InDelta(t, 100, progress.ProgressPercent, 1e-9)
	assert.InDelta(t, -1, progress.Remaining, 1e-9)

	rec = api.do(t, http.MethodGet, "/api/goals/progress?goalId="+monthly.ID, "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	progress = decode[model.GoalProgress](t, rec)
	assert.Equal(t, model.GoalStatusUnder, progress.Status)
	assert.InDelta(t, 25, progress.CurrentTotal, 1e-9)
	assert.InDelta(t, 25, progress.ProgressPercent, 1e-9)
	assert.InDelta(t, 75, progress.Remaining, 1e-9)

	// Another user's goal looks like it does not exist.
	rec = api.do(t, http.MethodGet, "/api/goals/progress?goalId="+monthly.ID, "", "u2")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/goals/progress?goalId=missing", "", "u1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGoalRejectsInvalidInput(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero target", `{"targetAmount":0,"period":"weekly"}`, "targetAmount"},
		{"negative target", `{"targetAmount":-5,"period":"weekly"}`, "targetAmount"},
		{"unknown period", `{"targetAmount":5,"period":"yearly"}`, "period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/goals", tt.body, "u1")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.field, decode[ErrorResponse](t, rec).Field)
		})
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
