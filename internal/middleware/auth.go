package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/model"
)

type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth validates the bearer token and populates AuthContext with
// the member's current household and display name.
func RequireAuth(tokens TokenParser, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.TokenFromRequest(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing token")
				return
			}
			claims, err := tokens.ParseToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				logger.Error("failed to load user", "user_id", claims.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "storage_failure", "internal error")
				return
			}
			if u == nil {
				writeError(w, http.StatusNotFound, "not_found", "user not found")
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID:      u.ID,
				HouseholdID: u.HouseholdID,
				Name:        u.DisplayName(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
