package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HeartbeatInterval is how often an idle stream emits a heartbeat so that
// proxies and clients can tell the connection is alive.
const HeartbeatInterval = 30 * time.Second

// StreamHandler serves realtime events over SSE and websocket transports.
type StreamHandler struct {
	notifier  *Notifier
	heartbeat time.Duration
}

// NewStreamHandler wires a handler to the given notifier.
func NewStreamHandler(notifier *Notifier) *StreamHandler {
	return &StreamHandler{notifier: notifier, heartbeat: HeartbeatInterval}
}

// RegisterRoutes mounts the stream endpoints on the given group.
func (h *StreamHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/stream", h.HandleStream)
	g.GET("/ws", h.HandleWebsocket)
}

// HandleStream serves a text/event-stream connection. The first event is
// CONNECTED, then published events as they arrive, with a heartbeat every
// HeartbeatInterval while idle. The stream ends when the client goes away.
func (h *StreamHandler) HandleStream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	sub := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(sub)

	connected := NewEvent(EventConnected, map[string]interface{}{
		"message": "Connected to real-time updates",
	})
	if err := writeSSE(res, connected); err != nil {
		return nil
	}
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeSSE(res, ev); err != nil {
				return nil
			}
			res.Flush()
		case <-ticker.C:
			hb := NewEvent(EventHeartbeat, nil)
			if err := writeSSE(res, hb); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeSSE(res *echo.Response, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(res, "data: %s\n\n", b)
	return err
}
