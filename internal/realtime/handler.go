package realtime

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/tablesync/internal/api/apierr"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/auth"
)

// Time between SSE keepalive comments
const keepalivePeriod = 30 * time.Second

// Handler accepts persistent connections over websocket and SSE
type Handler struct {
	hub        *Hub
	dispatcher *Dispatcher
	gate       *auth.Gate
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a new Handler
func NewHandler(hub *Hub, dispatcher *Dispatcher, gate *auth.Gate, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		gate:       gate,
		logger:     logger.With(slog.String("component", "realtime")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Player and host pages are served from other origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// identify reads the connection's role from the query string.
// role=host must carry a valid credential; a player_id without a role
// marks a player connection.
func (h *Handler) identify(r *http.Request) (Role, model.PlayerID, error) {
	q := r.URL.Query()

	var playerID model.PlayerID
	if raw := q.Get("player_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return "", 0, apierr.NewInvalidRequestError("Invalid player_id")
		}
		playerID = model.PlayerID(id)
	}

	switch Role(q.Get("role")) {
	case RoleHost:
		if err := h.gate.AuthenticateHost(q.Get("credential")); err != nil {
			return "", 0, err
		}
		return RoleHost, playerID, nil
	case RolePlayer:
		return RolePlayer, playerID, nil
	case RoleSpectator:
		return RoleSpectator, playerID, nil
	case "":
		if playerID != 0 {
			return RolePlayer, playerID, nil
		}
		return RoleSpectator, 0, nil
	default:
		return "", 0, apierr.NewInvalidRequestError("Unknown role")
	}
}

// ServeWS upgrades the request to a websocket and serves it until the
// connection closes
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	role, playerID, err := h.identify(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := NewClient(h.hub, TransportWebSocket, role, playerID)
	client.conn = conn
	h.hub.Register(client)

	go client.writePump(h.logger)
	client.readPump(r.Context(), h.dispatcher, h.logger)
}

// ServeSSE streams broadcasts to a receive-only client
func (h *Handler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	role, playerID, err := h.identify(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(h.hub, TransportSSE, role, playerID)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	_, _ = w.Write(formatSSEMessage("connected", `{"status":"connected","client_id":"`+client.id+`"}`))
	flusher.Flush()

	ticker := time.NewTicker(keepalivePeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(frame.SSEMessage()); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
