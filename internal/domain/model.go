package domain

import "time"

// Order is the persisted order record. Identity is assigned by the store
// at creation; the record is immutable afterwards.
type Order struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	Food         string    `json:"food"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DeliveryStatus buckets an ETA into a coarse delivery phase.
type DeliveryStatus string

const (
	StatusPreparing DeliveryStatus = "PREPARING"
	StatusOnTheWay  DeliveryStatus = "ON_THE_WAY"
	StatusArriving  DeliveryStatus = "ARRIVING"
)

// EtaRequest is the payload sent to the delivery estimator.
// DistanceKm is a pointer so a missing field can be told apart from zero.
type EtaRequest struct {
	OrderID    string   `json:"orderId"`
	Food       string   `json:"food,omitempty"`
	DistanceKm *float64 `json:"distanceKm"`
}

// EtaResult is the estimator's answer. Computed once per request,
// never persisted.
type EtaResult struct {
	OrderID      string         `json:"orderId"`
	Food         string         `json:"food,omitempty"`
	DistanceKm   float64        `json:"distanceKm"`
	EtaMinutes   int            `json:"etaMinutes"`
	Status       DeliveryStatus `json:"status"`
	CalculatedAt time.Time      `json:"calculatedAt"`
}
