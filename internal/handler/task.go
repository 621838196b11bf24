package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/model"
	"github.com/dukerupert/choreus/internal/store"
	"github.com/dukerupert/choreus/internal/websocket"
)

type TaskHandler struct {
	taskStore *store.TaskStore
	userStore *store.UserStore
	hub       websocket.Broadcaster
	logger    *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, us *store.UserStore, hub websocket.Broadcaster, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, userStore: us, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(householdID, action string, t *model.Task) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, websocket.NewMessage("task", action, t.ID, t))
	}
}

type taskRequest struct {
	Title      *string `json:"title"`
	Date       *string `json:"date"`
	Room       *string `json:"room"`
	Tip        *string `json:"tip"`
	AssigneeID *string `json:"assignee_id"`
	Repeat     *string `json:"repeat"`
	EndDate    *string `json:"end_date"`
	Category   *string `json:"category"`
	Memo       *string `json:"memo"`
	DurationID *string `json:"duration_id"`
	EffortID   *string `json:"effort_id"`
	Points     *int    `json:"points"`
	Order      *int    `json:"order"`
	IsDone     *bool   `json:"is_done"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// List handles GET /api/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if (start != "" && !validDate(start)) || (end != "" && !validDate(end)) {
		badRequest(w, "start_date and end_date must be YYYY-MM-DD")
		return
	}

	tasks, err := h.taskStore.List(r.Context(), auth.HouseholdID(r.Context()), start, end)
	if err != nil {
		internalError(w, h.logger, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	title := strings.TrimSpace(str(req.Title))
	date := str(req.Date)
	assignee := str(req.AssigneeID)
	if title == "" || date == "" || assignee == "" {
		badRequest(w, "title, date, and assignee_id are required")
		return
	}
	if msg := validateTask(req); msg != "" {
		badRequest(w, msg)
		return
	}
	if !h.checkAssignee(w, r, householdID, assignee) {
		return
	}

	var endDate *string
	if req.EndDate != nil && *req.EndDate != "" {
		endDate = req.EndDate
	}
	task, err := h.taskStore.Create(r.Context(), householdID, store.TaskInput{
		Title:      title,
		Date:       date,
		Room:       str(req.Room),
		Tip:        str(req.Tip),
		AssigneeID: assignee,
		Repeat:     str(req.Repeat),
		EndDate:    endDate,
		Category:   str(req.Category),
		Memo:       str(req.Memo),
		DurationID: str(req.DurationID),
		EffortID:   str(req.EffortID),
		Points:     req.Points,
		CreatedBy:  auth.UserID(r.Context()),
	})
	if err != nil {
		internalError(w, h.logger, "create task", err)
		return
	}

	h.broadcast(householdID, "created", task)
	writeJSON(w, http.StatusCreated, task)
}

// Update handles PATCH /api/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	id := r.PathValue("id")

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	if msg := validateTask(req); msg != "" {
		badRequest(w, msg)
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			badRequest(w, "title cannot be empty")
			return
		}
		req.Title = &title
	}
	if req.AssigneeID != nil && !h.checkAssignee(w, r, householdID, *req.AssigneeID) {
		return
	}

	task, err := h.taskStore.Update(r.Context(), householdID, id, store.TaskPatch{
		Title:      req.Title,
		Date:       req.Date,
		Room:       req.Room,
		Tip:        req.Tip,
		AssigneeID: req.AssigneeID,
		Repeat:     req.Repeat,
		EndDate:    req.EndDate,
		Category:   req.Category,
		Memo:       req.Memo,
		DurationID: req.DurationID,
		EffortID:   req.EffortID,
		Points:     req.Points,
		Order:      req.Order,
		IsDone:     req.IsDone,
	})
	if err != nil {
		internalError(w, h.logger, "update task", err)
		return
	}
	if task == nil {
		notFound(w, "task not found")
		return
	}

	h.broadcast(householdID, "updated", task)
	writeJSON(w, http.StatusOK, task)
}

// Toggle handles PATCH /api/tasks/{id}/toggle
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	task, err := h.taskStore.Toggle(r.Context(), householdID, r.PathValue("id"))
	if err != nil {
		internalError(w, h.logger, "toggle task", err)
		return
	}
	if task == nil {
		notFound(w, "task not found")
		return
	}

	h.broadcast(householdID, "toggled", task)
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	task, err := h.taskStore.Delete(r.Context(), householdID, r.PathValue("id"))
	if err != nil {
		internalError(w, h.logger, "delete task", err)
		return
	}
	if task == nil {
		notFound(w, "task not found")
		return
	}

	h.broadcast(householdID, "deleted", task)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func validateTask(req taskRequest) string {
	if req.Date != nil && !validDate(*req.Date) {
		return "date must be YYYY-MM-DD"
	}
	if req.EndDate != nil && *req.EndDate != "" && !validDate(*req.EndDate) {
		return "end_date must be YYYY-MM-DD"
	}
	if req.Points != nil && *req.Points < 0 {
		return "points cannot be negative"
	}
	if req.Order != nil && *req.Order < 1 {
		return "order must be at least 1"
	}
	return ""
}

// checkAssignee writes a 400 unless id belongs to the household.
func (h *TaskHandler) checkAssignee(w http.ResponseWriter, r *http.Request, householdID, id string) bool {
	member, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		internalError(w, h.logger, "check assignee", err)
		return false
	}
	if member == nil || member.HouseholdID != householdID {
		badRequest(w, "assignee not found")
		return false
	}
	return true
}
