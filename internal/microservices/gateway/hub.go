package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
)

// sweepInterval matches the client-side expiry polling cadence.
const sweepInterval = 5 * time.Second

// Hub fans notification events out to all authenticated sessions and
// enforces credential expiry server-side.
type Hub struct {
	lg *logger.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}

	now func() time.Time
}

func NewHub(lg *logger.Logger) *Hub {
	return &Hub{
		lg:       lg,
		sessions: make(map[*Session]struct{}),
		now:      time.Now,
	}
}

func (h *Hub) attach(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	h.mu.Unlock()
	metrics.SubscriberSessions.Set(float64(count))
	h.lg.Info("subscriber_connected", map[string]any{
		"subject":  s.claims.Subject,
		"sessions": count,
	})
}

func (h *Hub) detach(s *Session) {
	h.mu.Lock()
	_, present := h.sessions[s]
	delete(h.sessions, s)
	count := len(h.sessions)
	h.mu.Unlock()

	s.close()
	if present {
		metrics.SubscriberSessions.Set(float64(count))
		h.lg.Info("subscriber_disconnected", map[string]any{
			"subject":  s.claims.Subject,
			"sessions": count,
		})
	}
}

// Broadcast delivers ev to every attached session. Sessions whose write
// fails are dropped.
func (h *Hub) Broadcast(ev domain.NotificationEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.lg.Error("event_marshal_failed", err, nil)
		return
	}
	frame := domain.RealtimeFrame{Event: domain.RealtimeEventNotifications, Data: payload}

	h.mu.Lock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		if err := s.send(frame); err != nil {
			h.detach(s)
			continue
		}
		metrics.EventsDelivered.Inc()
	}
}

// Run sweeps expired sessions until ctx is done. A session whose
// credential expiry has passed gets the auth-error frame, then the
// connection is closed — symmetric with the client-side expiry poll.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.sweepExpired()
		}
	}
}

func (h *Hub) sweepExpired() {
	now := h.now()

	h.mu.Lock()
	var expired []*Session
	for s := range h.sessions {
		if s.Expired(now) {
			expired = append(expired, s)
		}
	}
	h.mu.Unlock()

	for _, s := range expired {
		h.lg.Info("subscriber_expired", map[string]any{"subject": s.claims.Subject})
		_ = s.send(domain.RealtimeFrame{Event: domain.RealtimeEventConnectError, Message: domain.AuthErrorMessage})
		h.detach(s)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	all := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		all = append(all, s)
	}
	h.mu.Unlock()

	for _, s := range all {
		h.detach(s)
	}
}
