package service

import (
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/microservices/order/repository"
)

type Service struct {
	OrderService OrderServiceInterface
}

func New(repo *repository.Repository, pub Publisher, eta Estimator, lg *logger.Logger) *Service {
	return &Service{
		OrderService: NewOrderService(repo.OrderRepo, pub, eta, lg),
	}
}
