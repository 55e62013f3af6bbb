// internal/models/notification.go
package models

const (
	RecipientAll    = "all"
	RecipientUser   = "user"
	RecipientMaster = "master"
	RecipientAdmin  = "admin"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserType  string    `json:"user_type"`
	UserID    *int64    `json:"user_id,omitempty"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority"`
	IsRead    Flag      `json:"is_read"`
	CreatedAt Timestamp `json:"created_at"`
}

// NotificationForm - рассылка уведомления из панели.
type NotificationForm struct {
	UserType string `json:"user_type" validate:"required,oneof=all user master admin"`
	UserID   *int64 `json:"user_id" validate:"omitempty,gt=0"`
	Type     string `json:"type" validate:"required,max=50"`
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high"`
}
