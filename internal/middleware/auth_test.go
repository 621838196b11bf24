package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/model"
)

type fakeUsers map[string]*model.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	return f[id], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	users := fakeUsers{"u1": {ID: "u1", HouseholdID: "h1", Nickname: "Ann", Email: "ann@example.com"}}

	valid, _ := tokens.GenerateToken("u1")
	unknown, _ := tokens.GenerateToken("u2")
	broken, _ := tokens.GenerateToken("broken")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", "Bearer " + unknown, http.StatusNotFound},
		{"store failure", "Bearer " + broken, http.StatusInternalServerError},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got auth.AuthContext
			handler := RequireAuth(tokens, users, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = auth.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				want := auth.AuthContext{UserID: "u1", HouseholdID: "h1", Name: "Ann"}
				if got != want {
					t.Errorf("auth = %+v, want %+v", got, want)
				}
			}
		})
	}
}
