// Package metrics registers the Prometheus instruments shared by the
// services and exposes the /metrics handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders persisted",
	})
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_published_total",
		Help: "Notification events handed to the broker, by kind",
	}, []string{"kind"})
	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_dropped_total",
		Help: "Notification events lost because publish failed, by kind",
	}, []string{"kind"})
	EtaRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_requests_total",
		Help: "ETA estimations by outcome",
	}, []string{"outcome"})
	BrokerReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broker_reconnects_total",
		Help: "Times the broker connection was re-established",
	})
	SubscriberSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subscriber_sessions_connected",
		Help: "Currently connected authenticated subscriber sessions",
	})
	EventsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_events_delivered_total",
		Help: "Notification events delivered to subscriber sessions",
	})
)

func init() {
	prometheus.MustRegister(
		OrdersCreated,
		EventsPublished,
		EventsDropped,
		EtaRequests,
		BrokerReconnects,
		SubscriberSessions,
		EventsDelivered,
	)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
