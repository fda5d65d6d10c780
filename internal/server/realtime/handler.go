package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Junhyukkkk/anondocs-server/internal/logging"
	"github.com/Junhyukkkk/anondocs-server/internal/server/auth"
)

// Handler upgrades HTTP requests to realtime sessions. The bearer token on
// the upgrade request is the only authentication this transport performs:
// it is verified once, before the upgrade, and the resulting principal is
// bound to the session until disconnect. A missing or invalid token refuses
// the connection before any subscription or command is possible.
type Handler struct {
	jwtSecret []byte
	broker    *Broker
	router    *Router
	logger    logging.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(jwtSecret []byte, broker *Broker, router *Router, logger logging.Logger) *Handler {
	return &Handler{
		jwtSecret: jwtSecret,
		broker:    broker,
		router:    router,
		logger:    logger.With("module", "realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins; auth is the
			// bearer token, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromBearer(r.Header.Get("Authorization"), h.jwtSecret)
	if err != nil {
		h.logger.Warn(r.Context(), "connection rejected", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn(r.Context(), "upgrade failed", "error", err)
		return
	}

	s := newSession(principal, conn, h.broker, h.router, h.logger)
	s.run(r.Context())
}
