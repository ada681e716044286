package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"

	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
)

// Server upgrades subscriber connections and gates them on a bearer
// credential before any event is delivered.
type Server struct {
	hub      *Hub
	verifier *authx.Verifier
	upgrader websocket.Upgrader
	lg       *logger.Logger
}

func NewServer(hub *Hub, verifier *authx.Verifier, lg *logger.Logger) *Server {
	return &Server{
		hub:      hub,
		verifier: verifier,
		lg:       lg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The demo dashboard is served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS accepts a subscriber connection. The upgrade always happens;
// a missing or invalid credential means the session stays
// unauthenticated, receives only the auth-error frame, and is closed
// without ever joining the fan-out set.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.lg.Error("upgrade_failed", err, nil)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = authx.BearerToken(r.Header.Get("Authorization"))
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		s.lg.Warn("subscriber_rejected", map[string]any{"remote": r.RemoteAddr})
		sess := newSession(conn, authx.Claims{})
		_ = sess.send(domain.RealtimeFrame{Event: domain.RealtimeEventConnectError, Message: domain.AuthErrorMessage})
		sess.close()
		return
	}

	sess := newSession(conn, claims)
	s.hub.attach(sess)
	go s.readLoop(sess)
}

// readLoop drains client frames (subscribers send nothing we act on)
// and detaches the session when the connection drops.
func (s *Server) readLoop(sess *Session) {
	defer s.hub.detach(sess)
	for {
		if _, _, err := sess.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"healthy","service":"notification-gateway"}`))
}
