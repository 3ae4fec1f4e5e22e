package notify

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrenholm/argus/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialHub(t *testing.T, hub *Hub, headers http.Header) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, headers)
	require.NoError(t, err)
	return conn, srv
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastsEventToClient(t *testing.T) {
	hub := NewHub(nil, testLogger())
	conn, srv := dialHub(t, hub, nil)
	defer srv.Close()
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.BroadcastEvent(&models.SecurityEvent{
		ID:       "evt-1",
		SourceIP: "203.0.113.9",
		Severity: models.SeverityHigh,
		Message:  "Rate limit exceeded",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.Equal(t, MsgTypeNewEvent, msg.Type)

	var event models.SecurityEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, models.SeverityHigh, event.Severity)
}

func TestHubBroadcastsAlertToAllClients(t *testing.T) {
	hub := NewHub(nil, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conns := make([]*websocket.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
	}
	waitForClients(t, hub, 3)

	hub.BroadcastAlert(&models.Alert{
		ID:       "alert-1",
		Title:    "IP Temporarily Blocked",
		Type:     models.AlertTypeUnauthorizedAccess,
		Severity: models.SeverityHigh,
	})

	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(frame, &msg))
		assert.Equal(t, MsgTypeNewAlert, msg.Type)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil, testLogger())
	conn, srv := dialHub(t, hub, nil)
	defer srv.Close()

	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)

	// Broadcasting with no clients is a no-op.
	hub.BroadcastEvent(&models.SecurityEvent{ID: "evt-2"})
}

func TestHubRejectsDisallowedOrigin(t *testing.T) {
	hub := NewHub([]string{"https://dashboard.example.com"}, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	headers := http.Header{}
	headers.Set("Origin", "https://attacker.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, headers)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	headers.Set("Origin", "https://dashboard.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(url, headers)
	require.NoError(t, err)
	conn.Close()
}
