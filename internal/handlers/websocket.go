package handlers

import (
	"net/http"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/client"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// newUpgrader accepts any origin when allowed is empty or contains "*"
func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(allowed) == 0 || origin == "" {
				return true
			}
			for _, o := range allowed {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// HandleWebSocket upgrades to a websocket that streams contest events
// GET /ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := client.NewClient(uuid.New().String(), conn, h.hub, h.log)
	h.hub.Register(c)

	// handler context, not the request's
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)
}
