// internal/store/notifications.go
package store

import (
	"context"
	"fmt"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

// adminRecipients - уведомления, которые видит панель.
var adminRecipients = []any{models.RecipientAdmin, models.RecipientAll}

func (s *Store) ListNotifications(ctx context.Context, p ListParams) ([]models.Notification, error) {
	return list[models.Notification](ctx, s, "notifications", func(q *backend.Query) *backend.Query {
		return p.apply(q, "title", "created_at")
	})
}

func (s *Store) CreateNotification(ctx context.Context, f models.NotificationForm) (*models.Notification, error) {
	priority := f.Priority
	if priority == "" {
		priority = "normal"
	}
	row := backend.Row{
		"user_type": f.UserType,
		"type":      f.Type,
		"title":     f.Title,
		"message":   f.Message,
		"priority":  priority,
		"is_read":   false,
	}
	if f.UserID != nil {
		row["user_id"] = *f.UserID
	}
	return insertOne[models.Notification](ctx, s, "notifications", row)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id int64) (*models.Notification, error) {
	return updateByID[models.Notification](ctx, s, "notifications", id, backend.Row{"is_read": true})
}

// MarkAllNotificationsRead отмечает прочитанными все уведомления панели и возвращает их число.
func (s *Store) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	if !s.Configured() {
		return 0, backend.ErrNotConfigured
	}
	rows, err := s.client.Table("notifications").
		In("user_type", adminRecipients...).
		Eq("is_read", false).
		Update(ctx, backend.Row{"is_read": true})
	if err != nil {
		logFailure("notifications", backend.OpUpdate, err)
		return 0, fmt.Errorf("не удалось отметить уведомления: %w", err)
	}
	return len(rows), nil
}

func (s *Store) UnreadNotificationCount(ctx context.Context) (int, error) {
	return count(ctx, s, "notifications", func(q *backend.Query) *backend.Query {
		return q.In("user_type", adminRecipients...).Eq("is_read", false)
	})
}
