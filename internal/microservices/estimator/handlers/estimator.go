package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
	"food-delivery-system/internal/microservices/estimator/service"
)

type EstimatorHandler struct {
	svc *service.EstimatorService
	lg  *logger.Logger
}

func NewEstimatorHandler(svc *service.EstimatorService, lg *logger.Logger) *EstimatorHandler {
	return &EstimatorHandler{svc: svc, lg: lg}
}

// Estimate is the single FaaS-style endpoint: CORS-open, POST only.
func (h *EstimatorHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.EtaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Malformed payloads are treated as internal computation
		// failures, not client validation errors.
		h.fail(w, apperrors.Computationf("decode request: %v", err))
		return
	}

	result, err := h.svc.Estimate(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *EstimatorHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		metrics.EtaRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": apperrors.Detail(err),
		})
	default:
		h.lg.Error("eta_failed", err, nil)
		metrics.EtaRequests.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to calculate ETA",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
