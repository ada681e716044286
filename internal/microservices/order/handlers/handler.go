package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/config"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
	"food-delivery-system/internal/microservices/order/service"
)

type Handler struct {
	OrderHandler *OrderHandler
}

func New(s *service.Service, auth config.AuthConfig, lg *logger.Logger) *Handler {
	return &Handler{
		OrderHandler: NewOrderHandler(s.OrderService, auth, lg),
	}
}

// Router wires the order API: order creation behind the bearer
// middleware, login and health open.
func (h *Handler) Router(verifier *authx.Verifier, lg *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/login", h.OrderHandler.Login)
	r.Get("/health", h.OrderHandler.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authx.Middleware(verifier, lg))
		r.Post("/api/orders", h.OrderHandler.CreateOrder)
		r.Get("/api/orders/{id}", h.OrderHandler.GetOrder)
	})

	return r
}
