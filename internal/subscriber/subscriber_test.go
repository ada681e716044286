package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/domain"
)

// stubGateway upgrades every connection and lets tests push frames.
type stubGateway struct {
	ts *httptest.Server

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newStubGateway(t *testing.T) *stubGateway {
	t.Helper()
	g := &stubGateway{}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	g.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conns = append(g.conns, conn)
		g.mu.Unlock()
	}))
	t.Cleanup(g.ts.Close)
	return g
}

func (g *stubGateway) url() string {
	return "ws" + strings.TrimPrefix(g.ts.URL, "http")
}

func (g *stubGateway) push(t *testing.T, frame domain.RealtimeFrame) {
	t.Helper()
	data, err := json.Marshal(frame)
	require.NoError(t, err)

	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.conns, "no subscriber connected")
	for _, c := range g.conns {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, data))
	}
}

func (g *stubGateway) pushNotification(t *testing.T, ev domain.NotificationEvent) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	g.push(t, domain.RealtimeFrame{Event: domain.RealtimeEventNotifications, Data: data})
}

func waitConnected(t *testing.T, g *stubGateway) {
	t.Helper()
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return len(g.conns) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func testToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, err := authx.Sign("supersecret", "user123", ttl)
	require.NoError(t, err)
	return token
}

func TestConnect_RequiresCredential(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url()})

	err := s.Connect(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrAuth))
	assert.False(t, s.Connected())
}

func TestConnect_IsIdempotent(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url()})
	s.Attach(testToken(t, time.Minute))

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Connect(context.Background()), "second connect is a no-op")
	waitConnected(t, g)
	assert.True(t, s.Connected())
	s.Disconnect()
}

func TestConnect_ConcurrentCallsEstablishOneConnection(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url()})
	s.Attach(testToken(t, time.Minute))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Connect(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	waitConnected(t, g)
	time.Sleep(50 * time.Millisecond)
	g.mu.Lock()
	conns := len(g.conns)
	g.mu.Unlock()
	assert.Equal(t, 1, conns, "racing connects must share one connection")

	g.pushNotification(t, domain.NotificationEvent{
		Kind: domain.EventOrderCreated, OrderID: "ord-1", Message: "🍔 alice ordered: Pizza",
	})
	require.Eventually(t, func() bool {
		return len(s.Notifications()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, s.Notifications(), 1, "one push must be recorded exactly once")
	s.Disconnect()
}

func TestConnect_DisconnectDuringDialWins(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url()})
	s.Attach(testToken(t, time.Minute))

	dialStarted := make(chan struct{})
	release := make(chan struct{})
	s.dialer = &websocket.Dialer{
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			close(dialStarted)
			<-release
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}

	done := make(chan error, 1)
	go func() { done <- s.Connect(context.Background()) }()

	<-dialStarted
	s.Disconnect()
	close(release)

	require.NoError(t, <-done)
	assert.False(t, s.Connected(), "a disconnect issued mid-dial is honored")
}

func TestNotifications_RecordedNewestFirstAndBounded(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url(), KeepLast: 5})
	s.Attach(testToken(t, time.Minute))

	var mu sync.Mutex
	var delivered []string
	s.OnNotification(func(ev domain.NotificationEvent) {
		mu.Lock()
		delivered = append(delivered, ev.Message)
		mu.Unlock()
	})

	require.NoError(t, s.Connect(context.Background()))
	waitConnected(t, g)
	defer s.Disconnect()

	for i := 1; i <= 7; i++ {
		g.pushNotification(t, domain.NotificationEvent{
			Kind:    domain.EventOrderCreated,
			OrderID: fmt.Sprintf("ord-%d", i),
			Message: fmt.Sprintf("🍔 alice ordered: Pizza %d", i),
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 7
	}, 2*time.Second, 5*time.Millisecond)

	view := s.Notifications()
	require.Len(t, view, 5, "the view keeps only the most recent five")
	assert.Equal(t, "🍔 alice ordered: Pizza 7", view[0], "newest first")
	assert.Equal(t, "🍔 alice ordered: Pizza 3", view[4])
}

func TestNotifications_FilterSkipsRecording(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{
		URL: g.url(),
		Filter: func(ev domain.NotificationEvent) bool {
			return ev.Kind == domain.EventOrderCreated
		},
	})
	s.Attach(testToken(t, time.Minute))

	require.NoError(t, s.Connect(context.Background()))
	waitConnected(t, g)
	defer s.Disconnect()

	g.pushNotification(t, domain.NotificationEvent{
		Kind: domain.EventEtaReady, OrderID: "ord-1", Message: "🚴 Pizza arriving in ~10 min (ARRIVING)",
	})
	g.pushNotification(t, domain.NotificationEvent{
		Kind: domain.EventOrderCreated, OrderID: "ord-2", Message: "🍔 alice ordered: Pizza",
	})

	require.Eventually(t, func() bool {
		return len(s.Notifications()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"🍔 alice ordered: Pizza"}, s.Notifications())
}

func TestAuthErrorFrameClearsAllState(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url()})
	s.Attach(testToken(t, time.Minute))

	require.NoError(t, s.Connect(context.Background()))
	waitConnected(t, g)

	g.pushNotification(t, domain.NotificationEvent{
		Kind: domain.EventOrderCreated, OrderID: "ord-1", Message: "🍔 alice ordered: Pizza",
	})
	require.Eventually(t, func() bool {
		return len(s.Notifications()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	g.push(t, domain.RealtimeFrame{
		Event:   domain.RealtimeEventConnectError,
		Message: domain.AuthErrorMessage,
	})

	require.Eventually(t, func() bool {
		return !s.Connected()
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, s.Notifications(), "auth failure clears the rolling view")

	err := s.Connect(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrAuth), "credential was cleared too")
}

func TestExpiryPollLogsOut(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url(), PollInterval: 10 * time.Millisecond})
	s.Attach(testToken(t, 50*time.Millisecond))

	require.NoError(t, s.Connect(context.Background()))
	waitConnected(t, g)
	require.True(t, s.Connected())

	require.Eventually(t, func() bool {
		return !s.Connected()
	}, 2*time.Second, 10*time.Millisecond, "expiry poll disconnects on its own")
	assert.Empty(t, s.Notifications())
}

func TestDisconnectKeepsCredential(t *testing.T) {
	g := newStubGateway(t)
	s := New(Config{URL: g.url()})
	s.Attach(testToken(t, time.Minute))

	require.NoError(t, s.Connect(context.Background()))
	waitConnected(t, g)
	s.Disconnect()
	assert.False(t, s.Connected())

	// Reconnecting works without re-attaching.
	require.NoError(t, s.Connect(context.Background()))
	s.Disconnect()
}
