package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
	"food-delivery-system/internal/microservices/order/repository"
)

// Publisher hands notification events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev domain.NotificationEvent, persistent bool) error
}

// Estimator computes a delivery ETA for an order.
type Estimator interface {
	Estimate(ctx context.Context, req domain.EtaRequest) (domain.EtaResult, error)
}

// etaCallTimeout bounds the background enrichment call.
const etaCallTimeout = 15 * time.Second

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	Wait()
}

type OrderService struct {
	repo repository.OrderRepositoryInterface
	pub  Publisher
	eta  Estimator
	lg   *logger.Logger

	// distance returns the placeholder delivery distance in km.
	distance func() float64

	tasks sync.WaitGroup
}

func NewOrderService(repo repository.OrderRepositoryInterface, pub Publisher, eta Estimator, lg *logger.Logger) *OrderService {
	return &OrderService{
		repo: repo,
		pub:  pub,
		eta:  eta,
		lg:   lg,
		distance: func() float64 {
			return 5 + rand.Float64()*5
		},
	}
}

// CreateOrder validates the request, persists the order, publishes the
// order_created event and kicks off the ETA enrichment in the
// background. The returned order never waits on the enrichment.
func (os *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	// Validation details are echoed verbatim in the 400 body.
	if strings.TrimSpace(req.Food) == "" {
		return domain.Order{}, apperrors.Validationf("Food is required")
	}
	if req.Total < 0 {
		return domain.Order{}, apperrors.Validationf("Total must be non-negative")
	}

	order, err := os.repo.CreateOrder(ctx, domain.Order{
		CustomerName: req.CustomerName,
		Food:         req.Food,
		Total:        req.Total,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to save order: %w", err)
	}
	metrics.OrdersCreated.Inc()
	os.lg.Info("order_created", map[string]any{
		"order_id": order.ID,
		"customer": order.CustomerName,
		"food":     order.Food,
	})

	// The order is already persisted; a failed publish drops the
	// notification but never the order.
	created := domain.NotificationEvent{
		Kind:    domain.EventOrderCreated,
		OrderID: order.ID,
		Food:    order.Food,
		Message: fmt.Sprintf("🍔 %s ordered: %s", order.CustomerName, order.Food),
	}
	os.publish(ctx, created, true)

	os.tasks.Add(1)
	go os.estimateAndNotify(order)

	return order, nil
}

// GetOrder reads one persisted order by id.
func (os *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, apperrors.Validationf("Order id is required")
	}
	return os.repo.GetOrder(ctx, id)
}

// Wait blocks until all background enrichment tasks have finished.
// Used on shutdown and by tests; pending tasks at process exit are
// simply abandoned, matching the fire-and-forget contract.
func (os *OrderService) Wait() { os.tasks.Wait() }

// estimateAndNotify is the fire-and-forget enrichment step: ETA failures
// are logged and swallowed, never surfaced to the order flow.
func (os *OrderService) estimateAndNotify(order domain.Order) {
	defer os.tasks.Done()

	ctx, cancel := context.WithTimeout(context.Background(), etaCallTimeout)
	defer cancel()

	km := os.distance()
	result, err := os.eta.Estimate(ctx, domain.EtaRequest{
		OrderID:    order.ID,
		Food:       order.Food,
		DistanceKm: &km,
	})
	if err != nil {
		os.lg.Error("eta_call_failed", err, map[string]any{"order_id": order.ID})
		return
	}
	os.lg.Info("eta_received", map[string]any{
		"order_id":    order.ID,
		"eta_minutes": result.EtaMinutes,
		"status":      result.Status,
	})

	ready := domain.NotificationEvent{
		Kind:       domain.EventEtaReady,
		OrderID:    order.ID,
		Food:       order.Food,
		Message:    fmt.Sprintf("🚴 %s arriving in ~%d min (%s)", order.Food, result.EtaMinutes, result.Status),
		Status:     result.Status,
		EtaMinutes: result.EtaMinutes,
	}
	os.publish(ctx, ready, false)
}

func (os *OrderService) publish(ctx context.Context, ev domain.NotificationEvent, persistent bool) {
	if err := os.pub.Publish(ctx, ev, persistent); err != nil {
		os.lg.Error("publish_failed", err, map[string]any{
			"kind":     string(ev.Kind),
			"order_id": ev.OrderID,
		})
		metrics.EventsDropped.WithLabelValues(string(ev.Kind)).Inc()
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Kind)).Inc()
}
