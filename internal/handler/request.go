package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choreus/internal/approval"
	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/model"
)

type RequestHandler struct {
	service *approval.Service
	logger  *slog.Logger
}

func NewRequestHandler(svc *approval.Service, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{service: svc, logger: logger}
}

type createRequestRequest struct {
	TaskID    *string `json:"task_id"`
	TaskTitle string  `json:"task_title"`
	TaskDate  string  `json:"task_date"`
	Delta     int     `json:"delta"`
	Direction string  `json:"direction"`
}

type decisionRequest struct {
	MemberID string `json:"member_id"`
	Decision string `json:"decision"`
}

func caller(r *http.Request) approval.Caller {
	ac, _ := auth.FromContext(r.Context())
	return approval.Caller{UserID: ac.UserID, HouseholdID: ac.HouseholdID, Name: ac.Name}
}

// List handles GET /api/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.service.List(r.Context(), caller(r))
	if err != nil {
		writeApprovalError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": snapshots})
}

// Create handles POST /api/requests
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	result, err := h.service.Create(r.Context(), caller(r), approval.CreateInput{
		TaskID:    req.TaskID,
		Title:     req.TaskTitle,
		Date:      req.TaskDate,
		Delta:     req.Delta,
		Direction: model.Direction(req.Direction),
	})
	if err != nil {
		writeApprovalError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Decide handles PATCH /api/requests/{id}/decision
func (h *RequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	result, err := h.service.Decide(r.Context(), caller(r), r.PathValue("id"), approval.DecisionInput{
		MemberID: req.MemberID,
		Decision: req.Decision,
	})
	if err != nil {
		writeApprovalError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// History handles GET /api/requests/history
func (h *RequestHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	outcomes, err := h.service.History(r.Context(), caller(r), limit)
	if err != nil {
		writeApprovalError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}
