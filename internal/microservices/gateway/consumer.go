package gateway

import (
	"context"
	"encoding/json"
	"time"

	"food-delivery-system/internal/connections/rabbitmq"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
)

const (
	consumerTag     = "notification-gateway"
	consumePrefetch = 10
	// consumeRetry paces re-subscription attempts while the broker
	// client is reconnecting.
	consumeRetry = time.Second
)

// Consumer drains the notification queue and hands each event to the
// hub. Delivery to subscribers is at-least-once: a message is acked
// only after the broadcast.
type Consumer struct {
	client *rabbitmq.Client
	hub    *Hub
	lg     *logger.Logger
}

func NewConsumer(client *rabbitmq.Client, hub *Hub, lg *logger.Logger) *Consumer {
	return &Consumer{client: client, hub: hub, lg: lg}
}

// Run consumes until ctx is done, resubscribing whenever the broker
// connection is lost and re-established.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		deliveries, err := c.client.Consume(consumerTag, consumePrefetch)
		if err != nil {
			select {
			case <-time.After(consumeRetry):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		c.lg.Info("consume_started", map[string]any{"queue": c.client.Queue()})

		for d := range deliveries {
			var ev domain.NotificationEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				c.lg.Error("event_decode_failed", err, map[string]any{
					"message_id": d.MessageId,
				})
				_ = d.Nack(false, false)
				continue
			}

			c.hub.Broadcast(ev)
			_ = d.Ack(false)
		}
		// Delivery channel closed: connection lost, loop resubscribes.
	}
}
