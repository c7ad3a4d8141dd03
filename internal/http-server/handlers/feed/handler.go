package feed

import (
	"log/slog"
	"net/http"

	"WaGate/internal/lib/sl"
	"WaGate/internal/ws"
)

// Serve upgrades to a WebSocket subscribed to journal events.
func Serve(log *slog.Logger, hub *ws.Hub, auth ws.Authenticator) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.feed"))
	return func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, auth, logger, w, r)
	}
}
