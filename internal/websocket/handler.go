package websocket

import (
	"log/slog"
	"net/http"
	"net/url"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/choreus/internal/auth"
)

// OriginPatterns converts allowed CORS origins into the host patterns
// accepted by the websocket handshake.
func OriginPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}

// HandleWebSocket returns an HTTP handler that upgrades authenticated
// connections and runs them as clients of the caller's household.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept failed", "error", err)
			return
		}

		logger.Debug("websocket connected", "household_id", ac.HouseholdID, "user_id", ac.UserID)
		client := NewClient(hub, conn, ac.HouseholdID, ac.UserID)
		client.Run(r.Context())
		logger.Debug("websocket disconnected", "household_id", ac.HouseholdID, "user_id", ac.UserID)
	}
}
