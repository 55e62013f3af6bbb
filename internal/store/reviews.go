// internal/store/reviews.go
package store

import (
	"context"
	"fmt"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

func (s *Store) ListReviews(ctx context.Context, p ListParams) ([]models.Review, error) {
	return list[models.Review](ctx, s, "reviews", func(q *backend.Query) *backend.Query {
		return p.apply(q, "comment", "created_at")
	})
}

// SetReviewStatus - модерация отзыва.
func (s *Store) SetReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) (*models.Review, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: статус отзыва %q", backend.ErrInvalidQuery, status)
	}
	return updateByID[models.Review](ctx, s, "reviews", id, backend.Row{"status": string(status)})
}

func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	return deleteByID(ctx, s, "reviews", id)
}
