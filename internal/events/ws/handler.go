// Package ws bridges the fan-out hub to websocket clients. Clients join and
// leave topics with small JSON commands; every published message on a joined
// topic is written to the socket in publish order.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"beacon/internal/events"
	"beacon/internal/platform/metrics"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// command is what clients send: join or leave a topic.
type command struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

type Handler struct {
	hub     *events.Hub
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(hub *events.Hub, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{hub: hub, logger: logger, metrics: m}
}

// ServeHTTP upgrades the connection and runs the read and write pumps until
// either side goes away. A client may pre-join topics with the "topics" query
// parameter; further joins arrive as commands.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := h.hub.Subscribe()
	for _, topic := range r.URL.Query()["topics"] {
		h.hub.Join(sub, topic)
	}

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.logger.Info("websocket connected", "subscriber_id", sub.ID)

	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

// readPump consumes join/leave commands until the client disconnects. It owns
// the connection teardown: unsubscribing closes sub.C, which stops the write
// pump.
func (h *Handler) readPump(conn *websocket.Conn, sub *events.Subscriber) {
	defer func() {
		h.hub.Unsubscribe(sub)
		conn.Close()
		if h.metrics != nil {
			h.metrics.WSConnections.Dec()
		}
		h.logger.Info("websocket disconnected", "subscriber_id", sub.ID)
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			h.logger.Warn("discarding malformed command", "subscriber_id", sub.ID)
			continue
		}
		switch cmd.Type {
		case "join":
			h.hub.Join(sub, cmd.Topic)
		case "leave":
			h.hub.Leave(sub, cmd.Topic)
		default:
			h.logger.Warn("unknown command", "type", cmd.Type, "subscriber_id", sub.ID)
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, sub *events.Subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
