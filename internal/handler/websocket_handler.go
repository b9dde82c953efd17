package handler

import (
	"net/http"

	"github.com/finara/prepay-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SessionChecker reports whether a prepayment session is live
type SessionChecker interface {
	Exists(sessionID string) bool
}

// WebSocketHandler handles WebSocket connections for quote events
type WebSocketHandler struct {
	hub            *websocket.Hub
	sessions       SessionChecker
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, sessions SessionChecker, allowedOrigins []string) *WebSocketHandler {
	// Build origin lookup map
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		sessions:       sessions,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	if sessionID == "" {
		log.Debug().Msg("WebSocket connection rejected: missing sessionId")
		return echo.NewHTTPError(http.StatusBadRequest, "missing sessionId")
	}

	if !h.sessions.Exists(sessionID) {
		log.Debug().Str("session_id", sessionID).Msg("WebSocket connection rejected: unknown session")
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	// Create client and register with hub
	client := websocket.NewClient(conn, sessionID, h.hub)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
