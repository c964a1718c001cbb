package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jpalmerr/soilboard/internal/store"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12
)

// The dashboard is read-only and unauthenticated, so any origin may subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket streams the same events as handleSSE over a WebSocket.
// Incoming messages are drained and ignored.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	log := s.logger.With("client_id", uuid.NewString(), "transport", "websocket")
	log.Debug("client connected", "remote", r.RemoteAddr)
	defer log.Debug("client disconnected")

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go drainWebSocket(conn, log, done)

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	st := s.store.Snapshot()
	if err := writeEvent(conn, store.Event{Type: store.EventSnapshot, State: &st}); err != nil {
		log.Debug("websocket initial write failed", "error", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("websocket ping failed", "error", err)
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				log.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// drainWebSocket reads until the peer goes away so control frames are
// processed, then closes done.
func drainWebSocket(conn *websocket.Conn, log *slog.Logger, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug("websocket closed", "error", err)
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev store.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
