package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/store"
)

// HandleWebSocket returns an HTTP handler that upgrades an authenticated
// connection to WebSocket and subscribes it to the rooms of the user's
// households.
func HandleWebSocket(hub *Hub, households *store.HouseholdStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := households.ListForUser(userID)
		if err != nil {
			logger.Error("websocket: list households", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		ids := make([]string, 0, len(list))
		for _, h := range list {
			ids = append(ids, h.ID)
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Same-origin enforcement is handled by the session cookie
		})
		if err != nil {
			logger.Error("websocket: accept", "error", err)
			return
		}

		client := NewClient(hub, conn, ids)
		client.Run(r.Context())
	}
}
