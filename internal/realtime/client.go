package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/tablesync/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer
	maxMessageSize = 8192
	// Outbound frames buffered per client before frames are dropped
	sendBufferSize = 64
)

// Role is what a connection identified itself as
type Role string

const (
	RoleHost      Role = "host"
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Transport is how a client is connected
type Transport string

const (
	TransportWebSocket Transport = "websocket"
	TransportSSE       Transport = "sse"
)

// Client is one connected participant
type Client struct {
	id          string
	role        Role
	playerID    model.PlayerID
	transport   Transport
	send        chan *Frame
	connectedAt time.Time

	hub  *Hub
	conn *websocket.Conn
}

// NewClient creates a client with a fresh connection id
func NewClient(hub *Hub, transport Transport, role Role, playerID model.PlayerID) *Client {
	return &Client{
		id:          uuid.NewString(),
		role:        role,
		playerID:    playerID,
		transport:   transport,
		send:        make(chan *Frame, sendBufferSize),
		connectedAt: time.Now(),
		hub:         hub,
	}
}

// IsHost reports whether the connection authenticated as host when it was
// opened
func (c *Client) IsHost() bool {
	return c.role == RoleHost
}

// readPump reads inbound frames and hands each to the dispatcher in
// arrival order. It returns when the connection fails or closes.
func (c *Client) readPump(ctx context.Context, dispatcher *Dispatcher, logger *slog.Logger) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error",
					slog.String("client_id", c.id),
					slog.Any("error", err))
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
			logger.Warn("undecodable frame ignored",
				slog.String("client_id", c.id),
				slog.Int("bytes", len(data)))
			dispatcher.rejectFrame(err)
			continue
		}
		dispatcher.Dispatch(ctx, c, in)
	}
}

// writePump writes queued frames to the connection and keeps it alive with
// pings. It returns when the hub closes the queue or a write fails.
func (c *Client) writePump(logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msg, err := frame.WebSocketMessage()
			if err != nil {
				logger.Error("failed to encode frame",
					slog.String("client_id", c.id),
					slog.String("event", frame.Event),
					slog.Any("error", err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
