package feed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/warenwerk/palletkit/logging"
)

// SSEHandler streams completion events as Server-Sent Events.
// Mount at the dashboard's event endpoint (e.g., /events).
type SSEHandler struct {
	feed      Feed
	heartbeat time.Duration
	logger    *logging.Logger
}

// NewSSEHandler creates an SSE handler over a feed. heartbeat keepalive
// comments are disabled when zero.
func NewSSEHandler(f Feed, heartbeat time.Duration, logger *logging.Logger) *SSEHandler {
	return &SSEHandler{
		feed:      f,
		heartbeat: heartbeat,
		logger:    logger.WithComponent("feed.sse"),
	}
}

// ServeHTTP implements http.Handler.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	sub, err := h.feed.Subscribe()
	if err != nil {
		http.Error(w, "feed unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	flusher.Flush()

	var heartbeat <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("drop unencodable event", map[string]interface{}{"err": err})
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// WSHandler streams completion events over a WebSocket. One-directional:
// client frames are read only to detect disconnects.
type WSHandler struct {
	feed         Feed
	upgrader     *websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *logging.Logger
}

// NewWSHandler creates a WebSocket handler over a feed.
func NewWSHandler(f Feed, logger *logging.Logger) *WSHandler {
	return &WSHandler{
		feed: f,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The feed is read-only and already behind auth; any origin
			// that can authenticate may listen.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
		logger:       logger.WithComponent("feed.ws"),
	}
}

// ServeHTTP implements http.Handler.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", map[string]interface{}{"err": err})
		return
	}
	defer conn.Close()

	sub, err := h.feed.Subscribe()
	if err != nil {
		return
	}
	defer sub.Unsubscribe()

	// Reader goroutine: surfaces client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
