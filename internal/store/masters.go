// internal/store/masters.go
package store

import (
	"context"
	"fmt"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

func (s *Store) ListMasters(ctx context.Context, p ListParams) ([]models.Master, error) {
	return list[models.Master](ctx, s, "masters", func(q *backend.Query) *backend.Query {
		return p.apply(q, "full_name", "created_at")
	})
}

func (s *Store) GetMaster(ctx context.Context, id int64) (*models.Master, error) {
	return getByID[models.Master](ctx, s, "masters", id)
}

func (s *Store) SetMasterStatus(ctx context.Context, id int64, status models.MasterStatus) (*models.Master, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: статус мастера %q", backend.ErrInvalidQuery, status)
	}
	return updateByID[models.Master](ctx, s, "masters", id, backend.Row{"status": string(status)})
}

func (s *Store) ToggleMasterVerified(ctx context.Context, id int64) (*models.Master, error) {
	m, err := s.GetMaster(ctx, id)
	if err != nil {
		return nil, err
	}
	return updateByID[models.Master](ctx, s, "masters", id, backend.Row{"is_verified": !m.IsVerified.Bool()})
}

func (s *Store) ToggleMasterPro(ctx context.Context, id int64) (*models.Master, error) {
	m, err := s.GetMaster(ctx, id)
	if err != nil {
		return nil, err
	}
	return updateByID[models.Master](ctx, s, "masters", id, backend.Row{"is_pro": !m.IsPro.Bool()})
}
