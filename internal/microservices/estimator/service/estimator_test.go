package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
)

func newTestService() *EstimatorService {
	s := NewEstimatorService(logger.New("delivery-estimator-test"))
	s.latency = 0
	return s
}

func ptr(f float64) *float64 { return &f }

func TestEstimate_KnownDistances(t *testing.T) {
	cases := []struct {
		name       string
		distanceKm float64
		wantEta    int
		wantStatus domain.DeliveryStatus
	}{
		{"short trip is arriving", 5, 10, domain.StatusArriving},
		{"medium trip is on the way", 10, 20, domain.StatusOnTheWay},
		{"long trip is preparing", 20, 40, domain.StatusPreparing},
	}

	s := newTestService()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.Estimate(context.Background(), domain.EtaRequest{
				OrderID:    "ord-1",
				Food:       "Pizza",
				DistanceKm: ptr(tc.distanceKm),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.wantEta, result.EtaMinutes)
			assert.Equal(t, tc.wantStatus, result.Status)
			assert.Equal(t, "ord-1", result.OrderID)
			assert.Equal(t, tc.distanceKm, result.DistanceKm)
			assert.False(t, result.CalculatedAt.IsZero())
		})
	}
}

func TestEstimate_CeilRounding(t *testing.T) {
	s := newTestService()
	// 5.1 km at 30 km/h is 10.2 minutes, rounded up.
	result, err := s.Estimate(context.Background(), domain.EtaRequest{
		OrderID:    "ord-2",
		DistanceKm: ptr(5.1),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, result.EtaMinutes)
}

func TestDetermineStatus_BoundariesBelongToLowerBucket(t *testing.T) {
	assert.Equal(t, domain.StatusArriving, determineStatus(1))
	assert.Equal(t, domain.StatusArriving, determineStatus(10))
	assert.Equal(t, domain.StatusOnTheWay, determineStatus(11))
	assert.Equal(t, domain.StatusOnTheWay, determineStatus(30))
	assert.Equal(t, domain.StatusPreparing, determineStatus(31))
}

func TestEstimate_Validation(t *testing.T) {
	s := newTestService()

	_, err := s.Estimate(context.Background(), domain.EtaRequest{DistanceKm: ptr(5)})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "missing orderId")

	_, err = s.Estimate(context.Background(), domain.EtaRequest{OrderID: "ord-3"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "missing distanceKm")

	_, err = s.Estimate(context.Background(), domain.EtaRequest{OrderID: "ord-3", DistanceKm: ptr(0)})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "non-positive distanceKm")
}

func TestEstimate_MinimumEtaIsOneMinute(t *testing.T) {
	s := newTestService()
	result, err := s.Estimate(context.Background(), domain.EtaRequest{
		OrderID:    "ord-4",
		DistanceKm: ptr(0.1),
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.EtaMinutes, 1)
}
