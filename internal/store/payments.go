// internal/store/payments.go
package store

import (
	"context"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

func (s *Store) ListPayments(ctx context.Context, p ListParams) ([]models.Payment, error) {
	return list[models.Payment](ctx, s, "payments", func(q *backend.Query) *backend.Query {
		return p.apply(q, "method", "created_at")
	})
}

func (s *Store) CompletedPayments(ctx context.Context) ([]models.Payment, error) {
	return list[models.Payment](ctx, s, "payments", func(q *backend.Query) *backend.Query {
		return q.Eq("status", string(models.PaymentStatusCompleted)).Order("created_at", false)
	})
}
