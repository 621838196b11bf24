package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/model"
	"github.com/dukerupert/choreus/internal/store"
)

type AuthHandler struct {
	userStore *store.UserStore
	tokens    *auth.Manager
	logger    *slog.Logger
}

func NewAuthHandler(us *store.UserStore, tokens *auth.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, tokens: tokens, logger: logger}
}

type signupRequest struct {
	Email               string `json:"email"`
	Password            string `json:"password"`
	Nickname            string `json:"nickname"`
	HouseholdInviteCode string `json:"household_invite_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	nickname := strings.TrimSpace(req.Nickname)
	if email == "" || req.Password == "" || nickname == "" {
		badRequest(w, "email, password, and nickname are required")
		return
	}

	existing, err := h.userStore.GetByEmail(r.Context(), email)
	if err != nil {
		internalError(w, h.logger, "signup lookup", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "conflict", "email is already registered")
		return
	}

	householdID := uuid.NewString()
	if code := strings.ToUpper(strings.TrimSpace(req.HouseholdInviteCode)); code != "" {
		inviter, err := h.userStore.GetByInviteCode(r.Context(), code)
		if err != nil {
			internalError(w, h.logger, "invite code lookup", err)
			return
		}
		if inviter == nil {
			badRequest(w, "invalid invite code")
			return
		}
		householdID = inviter.HouseholdID
	}

	hash, err := h.tokens.HashPassword(req.Password)
	if err != nil {
		internalError(w, h.logger, "hash password", err)
		return
	}

	user, err := h.userStore.Create(r.Context(), store.NewUser{
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		HouseholdID:  householdID,
	})
	if err != nil {
		internalError(w, h.logger, "create user", err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		internalError(w, h.logger, "generate token", err)
		return
	}

	h.logger.Info("user signed up", "user_id", user.ID, "household_id", user.HouseholdID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), email)
	if err != nil {
		internalError(w, h.logger, "login lookup", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}
	if err := h.tokens.ComparePassword(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.logger.Warn("compare password", "user_id", user.ID, "error", err)
		}
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}

	if err := h.userStore.EnsureInviteCode(r.Context(), user); err != nil {
		internalError(w, h.logger, "ensure invite code", err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		internalError(w, h.logger, "generate token", err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
