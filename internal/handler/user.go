package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/model"
	"github.com/dukerupert/choreus/internal/store"
)

type UserHandler struct {
	userStore *store.UserStore
	logger    *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, logger: logger}
}

type updateProfileRequest struct {
	Nickname        *string   `json:"nickname"`
	Color           *string   `json:"color"`
	Role            *string   `json:"role"`
	PreferredChores *[]string `json:"preferred_chores"`
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r, auth.UserID(r.Context()))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	patch := store.UserPatch{Role: req.Role, PreferredChores: req.PreferredChores}
	if req.Nickname != nil {
		nickname := strings.TrimSpace(*req.Nickname)
		if nickname == "" {
			badRequest(w, "nickname cannot be empty")
			return
		}
		patch.Nickname = &nickname
	}
	if req.Color != nil {
		if !colorPattern.MatchString(*req.Color) {
			badRequest(w, "color must be a hex value like #FF7F50")
			return
		}
		patch.Color = req.Color
	}
	if patch.PreferredChores != nil && *patch.PreferredChores == nil {
		empty := []string{}
		patch.PreferredChores = &empty
	}

	user, err := h.userStore.Update(r.Context(), auth.UserID(r.Context()), patch)
	if err != nil {
		internalError(w, h.logger, "update user", err)
		return
	}
	if user == nil {
		notFound(w, "user not found")
		return
	}
	if err := h.userStore.EnsureInviteCode(r.Context(), user); err != nil {
		internalError(w, h.logger, "ensure invite code", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Household handles GET /api/users/household
func (h *UserHandler) Household(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.ListByHousehold(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		internalError(w, h.logger, "list household", err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	for i := range users {
		if err := h.userStore.EnsureInviteCode(r.Context(), &users[i]); err != nil {
			internalError(w, h.logger, "ensure invite code", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": users})
}

func (h *UserHandler) loadUser(w http.ResponseWriter, r *http.Request, id string) (*model.User, bool) {
	user, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		internalError(w, h.logger, "get user", err)
		return nil, false
	}
	if user == nil {
		notFound(w, "user not found")
		return nil, false
	}
	if err := h.userStore.EnsureInviteCode(r.Context(), user); err != nil {
		internalError(w, h.logger, "ensure invite code", err)
		return nil, false
	}
	return user, true
}
