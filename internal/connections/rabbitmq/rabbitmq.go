// Package rabbitmq owns the process-wide broker connection used to
// publish and consume notification events. The connection lifecycle is a
// small state machine (disconnected -> connecting -> ready); while not
// ready, publish attempts fail fast instead of queueing in memory.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
)

// State is the broker connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

type Config struct {
	URL        string
	Queue      string
	RetryDelay time.Duration
	// MaxAttempts bounds consecutive failed connects; 0 retries forever.
	MaxAttempts int
}

// Client is the shared broker handle. One per process; its state is
// mutated only by its own Run loop.
type Client struct {
	cfg Config
	lg  *logger.Logger

	// dial is swapped out by tests.
	dial func(url string) (*amqp.Connection, error)

	mu    sync.Mutex
	state State
	conn  *amqp.Connection
	ch    *amqp.Channel
}

func New(cfg Config, lg *logger.Logger) *Client {
	if cfg.Queue == "" {
		cfg.Queue = domain.NotificationQueue
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &Client{cfg: cfg, lg: lg, dial: amqp.Dial}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether publishes would currently be accepted.
func (c *Client) Ready() bool { return c.State() == StateReady }

func (c *Client) Queue() string { return c.cfg.Queue }

// Run supervises the connection until ctx is done: connect, re-assert
// the durable queue, then wait for a broker-side close and start over
// after the retry delay.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0
	for {
		c.transition(StateConnecting)
		closeCh, err := c.connect()
		if err != nil {
			c.transition(StateDisconnected)
			attempts++
			if c.cfg.MaxAttempts > 0 && attempts >= c.cfg.MaxAttempts {
				return fmt.Errorf("broker unreachable after %d attempts: %w", attempts, err)
			}
			c.lg.Error("broker_connect_failed", err, map[string]any{
				"attempt":  attempts,
				"retry_in": c.cfg.RetryDelay.String(),
			})
			select {
			case <-time.After(c.cfg.RetryDelay):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		attempts = 0
		c.transition(StateReady)
		c.lg.Info("broker_connected", map[string]any{"queue": c.cfg.Queue})

		select {
		case amqpErr := <-closeCh:
			c.dropConnection()
			metrics.BrokerReconnects.Inc()
			var cause error
			if amqpErr != nil {
				cause = amqpErr
			}
			c.lg.Error("broker_connection_lost", cause, map[string]any{
				"retry_in": c.cfg.RetryDelay.String(),
			})
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			c.Close()
			return nil
		}
	}
}

func (c *Client) connect() (<-chan *amqp.Error, error) {
	conn, err := c.dial(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", c.cfg.Queue, err)
	}

	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))

	c.mu.Lock()
	c.conn = conn
	c.ch = ch
	c.mu.Unlock()
	return closeCh, nil
}

func (c *Client) transition(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) dropConnection() {
	c.mu.Lock()
	c.state = StateDisconnected
	c.conn = nil
	c.ch = nil
	c.mu.Unlock()
}

// Publish enqueues ev on the notification queue. It returns
// apperrors.ErrBrokerUnavailable unless the connection is ready;
// notification loss is acceptable, silent loss is not.
func (c *Client) Publish(ctx context.Context, ev domain.NotificationEvent, persistent bool) error {
	c.mu.Lock()
	ch := c.ch
	ready := c.state == StateReady && ch != nil
	c.mu.Unlock()

	if !ready {
		return fmt.Errorf("%w: cannot publish %s for order %s",
			apperrors.ErrBrokerUnavailable, ev.Kind, ev.OrderID)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	err = ch.PublishWithContext(ctx,
		"",          // default exchange
		c.cfg.Queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			DeliveryMode:  mode,
			ContentType:   "application/json",
			MessageId:     uuid.NewString(),
			CorrelationId: ev.OrderID,
			Timestamp:     time.Now().UTC(),
			Body:          body,
		})
	if err != nil {
		return fmt.Errorf("%w: publish %s: %v", apperrors.ErrBrokerUnavailable, ev.Kind, err)
	}
	return nil
}

// Consume opens a manual-ack delivery stream from the notification
// queue. The returned channel closes when the connection drops; callers
// re-invoke after the client is ready again.
func (c *Client) Consume(consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady || c.ch == nil {
		return nil, fmt.Errorf("%w: cannot consume %s", apperrors.ErrBrokerUnavailable, c.cfg.Queue)
	}
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return c.ch.Consume(c.cfg.Queue, consumer, false, false, false, false, nil)
}

// Close tears the connection down and leaves the client disconnected.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
}
