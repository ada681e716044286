package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/domain"
)

// OrderRepositoryInterface is the order store contract.
type OrderRepositoryInterface interface {
	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepositoryInterface {
	return &OrderRepository{pool: pool}
}

// CreateOrder assigns the order identity and persists it. The stored
// record is immutable afterwards.
func (or *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	order.ID = uuid.NewString()

	err := or.pool.QueryRow(ctx, `
		INSERT INTO orders (id, customer_name, food, total)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, order.ID, order.CustomerName, order.Food, order.Total).Scan(&order.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return order, nil
}

func (or *OrderRepository) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := or.pool.QueryRow(ctx, `
		SELECT id, customer_name, food, total, created_at
		FROM orders WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerName, &order.Food, &order.Total, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: order %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return order, nil
}
