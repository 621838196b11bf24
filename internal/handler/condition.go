package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/model"
	"github.com/dukerupert/choreus/internal/store"
)

type ConditionHandler struct {
	conditionStore *store.ConditionStore
	logger         *slog.Logger
}

func NewConditionHandler(cs *store.ConditionStore, logger *slog.Logger) *ConditionHandler {
	return &ConditionHandler{conditionStore: cs, logger: logger}
}

type conditionRequest struct {
	Date             string `json:"date"`
	MorningScore     *int   `json:"morning_score"`
	PreChoreScore    *int   `json:"pre_chore_score"`
	MorningLabel     string `json:"morning_label"`
	PreChoreLabel    string `json:"pre_chore_label"`
	PreChoreDisabled bool   `json:"pre_chore_disabled"`
	Note             string `json:"note"`
}

// List handles GET /api/conditions
func (h *ConditionHandler) List(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	conditions, err := h.conditionStore.List(r.Context(), auth.UserID(r.Context()), start, end)
	if err != nil {
		internalError(w, h.logger, "list conditions", err)
		return
	}
	if conditions == nil {
		conditions = []model.Condition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conditions": conditions})
}

// Get handles GET /api/conditions/{date}
func (h *ConditionHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.conditionStore.GetByDate(r.Context(), auth.UserID(r.Context()), r.PathValue("date"))
	if err != nil {
		internalError(w, h.logger, "get condition", err)
		return
	}
	if c == nil {
		notFound(w, "no condition recorded for that date")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Upsert handles PUT /api/conditions
func (h *ConditionHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req conditionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	if req.Date == "" {
		badRequest(w, "date is required")
		return
	}
	if !validDate(req.Date) {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}

	morning, err := score("morning_score", req.MorningScore)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var preChore *int
	if !req.PreChoreDisabled {
		v, err := score("pre_chore_score", req.PreChoreScore)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		preChore = &v
	}

	c, err := h.conditionStore.Upsert(r.Context(), model.Condition{
		HouseholdID:      auth.HouseholdID(r.Context()),
		UserID:           auth.UserID(r.Context()),
		Date:             req.Date,
		MorningScore:     morning,
		PreChoreScore:    preChore,
		MorningLabel:     req.MorningLabel,
		PreChoreLabel:    req.PreChoreLabel,
		PreChoreDisabled: req.PreChoreDisabled,
		Note:             req.Note,
	})
	if err != nil {
		internalError(w, h.logger, "upsert condition", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/conditions/{id}
func (h *ConditionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.conditionStore.Delete(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		internalError(w, h.logger, "delete condition", err)
		return
	}
	if !ok {
		notFound(w, "condition not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func score(field string, v *int) (int, error) {
	if v == nil {
		return model.DefaultScore, nil
	}
	if *v < model.MinScore || *v > model.MaxScore {
		return 0, fmt.Errorf("%s must be between %d and %d", field, model.MinScore, model.MaxScore)
	}
	return *v, nil
}
