package service

import (
	"context"
	"math"
	"time"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
)

// averageSpeedKmh is the fixed city delivery speed the ETA model assumes.
const averageSpeedKmh = 30.0

// defaultComputeLatency models the cost of a real estimation.
const defaultComputeLatency = 100 * time.Millisecond

type EstimatorService struct {
	lg      *logger.Logger
	latency time.Duration
	now     func() time.Time
}

func NewEstimatorService(lg *logger.Logger) *EstimatorService {
	return &EstimatorService{lg: lg, latency: defaultComputeLatency, now: time.Now}
}

// Estimate validates req, computes the ETA and its status bucket, and
// returns the full result. Each request is independent and idempotent
// for identical input.
func (s *EstimatorService) Estimate(ctx context.Context, req domain.EtaRequest) (domain.EtaResult, error) {
	if req.OrderID == "" || req.DistanceKm == nil {
		return domain.EtaResult{}, apperrors.Validationf("orderId and distanceKm are required")
	}
	distance := *req.DistanceKm
	if distance <= 0 {
		return domain.EtaResult{}, apperrors.Validationf("distanceKm must be positive, got %v", distance)
	}

	etaMinutes := calculateETA(distance)
	status := determineStatus(etaMinutes)

	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return domain.EtaResult{}, ctx.Err()
	}

	result := domain.EtaResult{
		OrderID:      req.OrderID,
		Food:         req.Food,
		DistanceKm:   distance,
		EtaMinutes:   etaMinutes,
		Status:       status,
		CalculatedAt: s.now().UTC(),
	}

	s.lg.Info("eta_estimated", map[string]any{
		"order_id":    result.OrderID,
		"food":        result.Food,
		"distance_km": result.DistanceKm,
		"eta_minutes": result.EtaMinutes,
		"status":      result.Status,
	})
	metrics.EtaRequests.WithLabelValues("success").Inc()

	return result, nil
}

func calculateETA(distanceKm float64) int {
	return int(math.Ceil(distanceKm / averageSpeedKmh * 60))
}

// determineStatus maps minutes to a phase; the boundaries at 10 and 30
// belong to the lower bucket.
func determineStatus(etaMinutes int) domain.DeliveryStatus {
	switch {
	case etaMinutes > 30:
		return domain.StatusPreparing
	case etaMinutes > 10:
		return domain.StatusOnTheWay
	default:
		return domain.StatusArriving
	}
}
