package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/config"
	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/microservices/order/service"
)

type OrderHandler struct {
	svc  service.OrderServiceInterface
	auth config.AuthConfig
	lg   *logger.Logger
}

func NewOrderHandler(svc service.OrderServiceInterface, auth config.AuthConfig, lg *logger.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, auth: auth, lg: lg}
}

func (oh *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	order, err := oh.svc.CreateOrder(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": apperrors.Detail(err)})
			return
		}
		oh.lg.Error("order_create_failed", err, nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to place order"})
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetOrder reads back a single order by id.
func (oh *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := oh.svc.GetOrder(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
		case errors.Is(err, apperrors.ErrValidation):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": apperrors.Detail(err)})
		default:
			oh.lg.Error("order_get_failed", err, map[string]any{"order_id": id})
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load order"})
		}
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Login mints a short-lived demo credential for the given username.
func (oh *OrderHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username is required"})
		return
	}

	token, err := authx.Sign(oh.auth.Secret, req.Username, oh.auth.TokenTTL())
	if err != nil {
		oh.lg.Error("token_sign_failed", err, nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to issue token"})
		return
	}

	writeJSON(w, http.StatusOK, domain.LoginResponse{Token: token})
}

func (oh *OrderHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "order-service",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
