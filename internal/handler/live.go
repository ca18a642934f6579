package handler

import (
	"log/slog"
	"net/http"

	"github.com/hubshift/marketplace/backend/internal/live"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", nil)
}

// ServeLiveFeed upgrades to a websocket that streams the caller's shift events.
func (h *Handler) ServeLiveFeed(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		slog.Warn("websocket upgrade failed", "user", actor.ID, "error", err)
		return
	}

	h.hub.Serve(live.NewClient(actor.ID, conn))
}
