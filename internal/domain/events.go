package domain

// EventKind names the domain happenings pushed to live subscribers.
type EventKind string

const (
	EventOrderCreated EventKind = "order_created"
	EventEtaReady     EventKind = "eta_ready"
)

// NotificationQueue is the durable queue carrying notification events.
const NotificationQueue = "order_notifications"

// NotificationEvent is the JSON payload placed on the notification queue
// and fanned out to subscribers. Consumed at least once, never mutated.
type NotificationEvent struct {
	Kind       EventKind      `json:"kind"`
	OrderID    string         `json:"orderId"`
	Food       string         `json:"food,omitempty"`
	Message    string         `json:"message"`
	Status     DeliveryStatus `json:"status,omitempty"`
	EtaMinutes int            `json:"etaMinutes,omitempty"`
}
