package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/domain"
)

const writeTimeout = 10 * time.Second

// Session is one subscriber connection with its attached credential.
// Created on connect, destroyed on disconnect or credential expiry.
type Session struct {
	conn   *websocket.Conn
	claims authx.Claims

	// writeMu serializes writes; gorilla connections do not allow
	// concurrent writers.
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, claims authx.Claims) *Session {
	return &Session{conn: conn, claims: claims}
}

// Expired reports whether the attached credential has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s.claims.Expired(now)
}

func (s *Session) send(f domain.RealtimeFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}
