package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newStreamServer(t *testing.T, heartbeat time.Duration) (*Notifier, *httptest.Server) {
	t.Helper()

	notifier := NewNotifier(zerolog.Nop())
	handler := NewStreamHandler(notifier)
	if heartbeat > 0 {
		handler.heartbeat = heartbeat
	}

	e := echo.New()
	handler.RegisterRoutes(e.Group("/realtime"))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return notifier, srv
}

func readSSEEvent(t *testing.T, r *bufio.Reader) map[string]interface{} {
	t.Helper()

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read sse line: %v", err)
		}
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &out); err != nil {
			t.Fatalf("decode sse payload: %v", err)
		}
		return out
	}
}

func TestStream_SendsConnectedThenPublishedEvents(t *testing.T) {
	notifier, srv := newStreamServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/realtime/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)

	first := readSSEEvent(t, reader)
	if first["type"] != string(EventConnected) {
		t.Fatalf("expected CONNECTED first, got %v", first["type"])
	}

	// The subscriber is registered before CONNECTED is written, so once we
	// have read it the publish below is guaranteed to be delivered.
	notifier.Publish(NewEvent(EventBedUpdate, map[string]interface{}{"hospitalId": "h1"}))

	second := readSSEEvent(t, reader)
	if second["type"] != string(EventBedUpdate) {
		t.Fatalf("expected BED_UPDATE, got %v", second["type"])
	}
	if second["hospitalId"] != "h1" {
		t.Fatalf("expected flattened hospitalId, got %v", second["hospitalId"])
	}
}

func TestStream_EmitsHeartbeats(t *testing.T) {
	_, srv := newStreamServer(t, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/realtime/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)

	first := readSSEEvent(t, reader)
	if first["type"] != string(EventConnected) {
		t.Fatalf("expected CONNECTED first, got %v", first["type"])
	}

	hb := readSSEEvent(t, reader)
	if hb["type"] != string(EventHeartbeat) {
		t.Fatalf("expected HEARTBEAT, got %v", hb["type"])
	}
}

func TestStream_ClientDisconnectCleansUpSubscriber(t *testing.T) {
	notifier, srv := newStreamServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/realtime/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	reader := bufio.NewReader(resp.Body)
	readSSEEvent(t, reader) // CONNECTED implies the subscriber is registered

	cancel()
	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for notifier.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected subscriber cleanup, still have %d", notifier.SubscriberCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebsocket_ReceivesConnectedAndEvents(t *testing.T) {
	notifier, srv := newStreamServer(t, 0)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime/ws"
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read connected: %v", err)
	}
	var first map[string]interface{}
	if err := json.Unmarshal(msg, &first); err != nil {
		t.Fatalf("decode connected: %v", err)
	}
	if first["type"] != string(EventConnected) {
		t.Fatalf("expected CONNECTED, got %v", first["type"])
	}

	notifier.Publish(NewEvent(EventBloodUpdate, map[string]interface{}{"bloodGroup": "A+"}))

	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var second map[string]interface{}
	if err := json.Unmarshal(msg, &second); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if second["type"] != string(EventBloodUpdate) {
		t.Fatalf("expected BLOOD_UPDATE, got %v", second["type"])
	}
	if second["bloodGroup"] != "A+" {
		t.Fatalf("expected flattened bloodGroup, got %v", second["bloodGroup"])
	}
}
