package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// HandleWebsocket upgrades the connection and streams the same event feed
// as the SSE endpoint, one JSON message per event.
func (h *StreamHandler) HandleWebsocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sub := h.notifier.Subscribe()

	go h.writePump(ws, sub)
	go h.readPump(ws, sub)

	return nil
}

// writePump forwards subscriber events to the socket and keeps the
// connection alive with heartbeats. It owns all writes to the socket.
func (h *StreamHandler) writePump(ws *gorillawebsocket.Conn, sub *Subscriber) {
	defer ws.Close()

	connected := NewEvent(EventConnected, map[string]interface{}{
		"message": "Connected to real-time updates",
	})
	if err := writeWS(ws, connected); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeWS(ws, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := writeWS(ws, NewEvent(EventHeartbeat, nil)); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so pings and close frames are processed.
// Any read error tears the subscription down.
func (h *StreamHandler) readPump(ws *gorillawebsocket.Conn, sub *Subscriber) {
	defer func() {
		h.notifier.Unsubscribe(sub)
		ws.Close()
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func writeWS(ws *gorillawebsocket.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ws.WriteMessage(gorillawebsocket.TextMessage, data)
}
