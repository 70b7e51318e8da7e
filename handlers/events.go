package handlers

import (
	"net/http"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventsHandler upgrades authenticated requests to the change-event socket.
type EventsHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewEventsHandler accepts upgrades from the given origins; "*" allows any.
func NewEventsHandler(hub *services.Hub, allowedOrigins []string, logger *zap.Logger) *EventsHandler {
	h := &EventsHandler{hub: hub, log: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// ServeHTTP upgrades the request and hands the connection to the hub
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn, userID(r))
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
