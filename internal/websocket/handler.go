package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/allowance/internal/auth"
)

// HandleWebSocket upgrades authenticated requests and streams the caller's
// household events until the connection closes.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		householdID := auth.HouseholdID(r.Context())
		if householdID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // household LAN dashboards connect from any origin
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()
		logger.Debug("websocket connected", "household_id", householdID, "member_id", auth.MemberID(r.Context()))

		client := NewClient(hub, conn, householdID)
		client.Run(r.Context())
	}
}
