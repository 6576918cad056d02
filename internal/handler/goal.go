package handler

import (
	"net/http"

	"github.com/sakif/ecoguardian/internal/auth"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/service"
)

type GoalHandler struct {
	goals *service.GoalService
}

func NewGoalHandler(goals *service.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

type createGoalRequest struct {
	TargetAmount float64      `json:"targetAmount"`
	Period       model.Period `json:"period"`
}

// HandleCreate sets a new goal, which becomes the active one.
//
// HTTP: POST /api/goals
// REQUEST BODY: {"targetAmount": 150, "period": "monthly"}
func (h *GoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	goal, err := h.goals.Create(r.Context(), userID, req.TargetAmount, req.Period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// HandleList backs GET /api/goals (newest first).
func (h *GoalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	goals, err := h.goals.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HandleActive backs GET /api/goals/active. The body is JSON null when the
// user has no goal; that is not an error.
func (h *GoalHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	goal, err := h.goals.Active(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	// A nil *model.Goal inside the interface encodes as null.
	writeJSON(w, http.StatusOK, goal)
}

// HandleProgress evaluates the active goal, or the one named by ?goalId=.
//
// HTTP: GET /api/goals/progress[?goalId=xxx]
func (h *GoalHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	progress, err := h.goals.Progress(r.Context(), userID, r.URL.Query().Get("goalId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
