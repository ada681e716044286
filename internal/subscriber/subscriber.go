// Package subscriber is the client half of the real-time channel: it
// attaches a bearer credential, keeps a rolling view of received
// notifications, polls the credential expiry and clears all local state
// when authentication fails or lapses.
package subscriber

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
)

const (
	// defaultPollInterval is how often the attached credential's
	// expiry is checked.
	defaultPollInterval = 5 * time.Second
	// defaultKeepLast bounds the rolling notification view.
	defaultKeepLast = 5
)

// Filter is a pure predicate applied to each event before it is
// recorded; nil accepts everything.
type Filter func(domain.NotificationEvent) bool

type Config struct {
	// URL is the gateway websocket endpoint.
	URL          string
	PollInterval time.Duration
	KeepLast     int
	Filter       Filter
	Logger       *logger.Logger
}

// Session manages one logical subscriber identity. Credential attach
// and detach are serialized against connect/disconnect.
type Session struct {
	cfg    Config
	dialer *websocket.Dialer

	mu            sync.Mutex
	token         string
	expiry        time.Time
	conn          *websocket.Conn
	connected     bool
	connecting    bool
	dialAborted   bool
	stop          chan struct{}
	notifications []string
	handler       func(domain.NotificationEvent)
}

func New(cfg Config) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.KeepLast <= 0 {
		cfg.KeepLast = defaultKeepLast
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New("subscriber")
	}
	return &Session{cfg: cfg, dialer: websocket.DefaultDialer}
}

// OnNotification registers the delivery handler. Registration is
// idempotent: the handler is replaced, never stacked, so reconnects
// cannot cause duplicate delivery.
func (s *Session) OnNotification(fn func(domain.NotificationEvent)) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

// Attach stores the credential for subsequent connects and remembers
// its expiry (read without verification; the server is the authority).
func (s *Session) Attach(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if exp, ok := authx.PeekExpiry(token); ok {
		s.expiry = exp
	} else {
		s.expiry = time.Time{}
	}
}

// Connect dials the gateway with the attached credential and starts the
// read and expiry-poll loops. Connecting while connected or while
// another connect is already dialing is a no-op; only one dial can be
// in flight per session.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected || s.connecting {
		s.mu.Unlock()
		return nil
	}
	if s.token == "" {
		s.mu.Unlock()
		return apperrors.Authf("no credential attached")
	}
	token := s.token
	s.connecting = true
	s.dialAborted = false
	s.mu.Unlock()

	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL+"?token="+token, nil)

	s.mu.Lock()
	s.connecting = false
	if err != nil {
		s.dialAborted = false
		s.mu.Unlock()
		return apperrors.Dependency(err)
	}
	if s.dialAborted {
		// Disconnect or Logout raced the dial; the teardown wins.
		s.dialAborted = false
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.connected = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go s.readLoop(conn)
	go s.pollExpiry(stop)
	return nil
}

// Connected reports whether a live connection is up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Notifications returns the rolling view, newest first.
func (s *Session) Notifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Disconnect drops the connection but keeps the credential.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.disconnectLocked()
	s.mu.Unlock()
}

// Logout forcibly disconnects and clears the credential and all
// accumulated view state.
func (s *Session) Logout() {
	s.mu.Lock()
	s.disconnectLocked()
	s.token = ""
	s.expiry = time.Time{}
	s.notifications = nil
	s.mu.Unlock()
	s.cfg.Logger.Info("logged_out", nil)
}

func (s *Session) disconnectLocked() {
	if s.connecting {
		s.dialAborted = true
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.connected = false
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.disconnectLocked()
			}
			s.mu.Unlock()
			return
		}

		var frame domain.RealtimeFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Event {
		case domain.RealtimeEventNotifications:
			var ev domain.NotificationEvent
			if err := json.Unmarshal(frame.Data, &ev); err != nil {
				continue
			}
			s.record(ev)
		case domain.RealtimeEventConnectError:
			if frame.Message == domain.AuthErrorMessage {
				s.cfg.Logger.Warn("auth_error", nil)
				s.Logout()
				return
			}
		}
	}
}

func (s *Session) record(ev domain.NotificationEvent) {
	if s.cfg.Filter != nil && !s.cfg.Filter(ev) {
		return
	}

	s.mu.Lock()
	s.notifications = append([]string{ev.Message}, s.notifications...)
	if len(s.notifications) > s.cfg.KeepLast {
		s.notifications = s.notifications[:s.cfg.KeepLast]
	}
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}

// pollExpiry force-disconnects and clears state once the credential
// expiry passes, even when the server never signals anything.
func (s *Session) pollExpiry(stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			expired := !s.expiry.IsZero() && time.Now().After(s.expiry)
			s.mu.Unlock()
			if expired {
				s.cfg.Logger.Info("credential_expired", nil)
				s.Logout()
				return
			}
		}
	}
}
