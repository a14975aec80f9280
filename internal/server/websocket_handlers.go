package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Telemetry is a local debugging surface; accept any origin.
		return true
	},
}

// snapshotInterval is how often the stream checks for a new frame snapshot.
const snapshotInterval = 50 * time.Millisecond

// stateWebSocketHandler streams tracker snapshots to a client, sending one
// message per observed frame advance until the client disconnects.
func (s *Server) stateWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()
	slog.Info("Telemetry WebSocket connected", "remote_addr", r.RemoteAddr)

	// Drain (and ignore) client messages so control frames are processed
	// and closure is noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	lastFrame := -1
	for {
		select {
		case <-done:
			slog.Debug("Telemetry WebSocket closed", "remote_addr", r.RemoteAddr)
			return
		case <-ticker.C:
			snap := s.source.Snapshot()
			if snap.Frame == lastFrame {
				continue
			}
			lastFrame = snap.Frame
			deadline := time.Now().Add(time.Duration(s.timeoutSec) * time.Second)
			_ = conn.SetWriteDeadline(deadline)
			if err := conn.WriteJSON(StateResponse{Tracker: snap}); err != nil {
				slog.Debug("Telemetry WebSocket write failed", "error", err)
				return
			}
		}
	}
}
