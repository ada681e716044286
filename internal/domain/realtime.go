package domain

import "encoding/json"

// RealtimeFrame is the envelope on the real-time subscriber channel.
type RealtimeFrame struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

const (
	// RealtimeEventNotifications carries a NotificationEvent payload.
	RealtimeEventNotifications = "notifications"
	// RealtimeEventConnectError signals a connection-level failure.
	RealtimeEventConnectError = "connect_error"
)

// AuthErrorMessage is the connect_error message clients key their
// local state reset on.
const AuthErrorMessage = "Authentication error"
