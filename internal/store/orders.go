// internal/store/orders.go
package store

import (
	"context"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

// ListOrders поддерживает фильтры status, master_id, user_id, category_id через p.Filters.
func (s *Store) ListOrders(ctx context.Context, p ListParams) ([]models.Order, error) {
	return list[models.Order](ctx, s, "orders", func(q *backend.Query) *backend.Query {
		return p.apply(q, "description", "created_at")
	})
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return getByID[models.Order](ctx, s, "orders", id)
}

// RecentOrders - последние n заказов для главной страницы.
func (s *Store) RecentOrders(ctx context.Context, n int) ([]models.Order, error) {
	if n <= 0 {
		n = 5
	}
	return list[models.Order](ctx, s, "orders", func(q *backend.Query) *backend.Query {
		return q.Order("created_at", false).Limit(n)
	})
}
