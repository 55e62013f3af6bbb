// internal/store/users.go
package store

import (
	"context"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

func (s *Store) ListUsers(ctx context.Context, p ListParams) ([]models.User, error) {
	return list[models.User](ctx, s, "users", func(q *backend.Query) *backend.Query {
		return p.apply(q, "full_name", "created_at")
	})
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getByID[models.User](ctx, s, "users", id)
}

// SetUserBlocked блокирует или разблокирует пользователя. Единственная правка пользователей из панели.
func (s *Store) SetUserBlocked(ctx context.Context, id int64, blocked bool) (*models.User, error) {
	return updateByID[models.User](ctx, s, "users", id, backend.Row{"is_blocked": blocked})
}
