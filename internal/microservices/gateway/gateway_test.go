package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
)

const testSecret = "supersecret"

func newTestHubAndServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	lg := logger.New("notification-gateway-test")
	hub := NewHub(lg)
	srv := NewServer(hub, authx.NewVerifier(testSecret), lg)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return hub, ts
}

func wsURL(ts *httptest.Server, token string) string {
	u := "ws" + strings.TrimPrefix(ts.URL, "http")
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) domain.RealtimeFrame {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f domain.RealtimeFrame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func (h *Hub) sessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func waitSessions(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.sessionCount() == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHandleWS_AuthenticatedSessionReceivesBroadcast(t *testing.T) {
	hub, ts := newTestHubAndServer(t)

	token, err := authx.Sign(testSecret, "user123", time.Minute)
	require.NoError(t, err)
	conn := dialWS(t, wsURL(ts, token))
	waitSessions(t, hub, 1)

	hub.Broadcast(domain.NotificationEvent{
		Kind:    domain.EventOrderCreated,
		OrderID: "ord-1",
		Food:    "Pizza",
		Message: "🍔 alice ordered: Pizza",
	})

	frame := readFrame(t, conn)
	assert.Equal(t, domain.RealtimeEventNotifications, frame.Event)

	var ev domain.NotificationEvent
	require.NoError(t, json.Unmarshal(frame.Data, &ev))
	assert.Equal(t, domain.EventOrderCreated, ev.Kind)
	assert.Equal(t, "🍔 alice ordered: Pizza", ev.Message)
}

func TestHandleWS_InvalidTokenGetsAuthErrorAndNeverJoins(t *testing.T) {
	hub, ts := newTestHubAndServer(t)

	conn := dialWS(t, wsURL(ts, "bogus"))

	frame := readFrame(t, conn)
	assert.Equal(t, domain.RealtimeEventConnectError, frame.Event)
	assert.Equal(t, domain.AuthErrorMessage, frame.Message)

	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server closes the unauthenticated connection")
	assert.Equal(t, 0, hub.sessionCount())
}

func TestHandleWS_MissingTokenIsRejected(t *testing.T) {
	hub, ts := newTestHubAndServer(t)

	conn := dialWS(t, wsURL(ts, ""))

	frame := readFrame(t, conn)
	assert.Equal(t, domain.RealtimeEventConnectError, frame.Event)
	assert.Equal(t, domain.AuthErrorMessage, frame.Message)
	assert.Equal(t, 0, hub.sessionCount())
}

func TestHub_SweepDisconnectsExpiredSessions(t *testing.T) {
	hub, ts := newTestHubAndServer(t)

	token, err := authx.Sign(testSecret, "user123", time.Minute)
	require.NoError(t, err)
	conn := dialWS(t, wsURL(ts, token))
	waitSessions(t, hub, 1)

	// Jump the sweep clock past the credential expiry.
	hub.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	hub.sweepExpired()

	frame := readFrame(t, conn)
	assert.Equal(t, domain.RealtimeEventConnectError, frame.Event)
	assert.Equal(t, domain.AuthErrorMessage, frame.Message)

	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "expired session is closed")
	waitSessions(t, hub, 0)
}

func TestHub_BroadcastDropsDeadSessions(t *testing.T) {
	hub, ts := newTestHubAndServer(t)

	token, err := authx.Sign(testSecret, "user123", time.Minute)
	require.NoError(t, err)
	conn := dialWS(t, wsURL(ts, token))
	waitSessions(t, hub, 1)

	require.NoError(t, conn.Close())

	// The write to the closed connection fails and the session is
	// detached; the second broadcast sees an empty set.
	require.Eventually(t, func() bool {
		hub.Broadcast(domain.NotificationEvent{Kind: domain.EventEtaReady, OrderID: "ord-2"})
		return hub.sessionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
