// internal/models/order.go
package models

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusNew        OrderStatus = "new"
	OrderStatusAccepted   OrderStatus = "accepted"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order связывает клиента и мастера. Переходы статусов делают мобильные приложения.
type Order struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	MasterID       int64       `json:"master_id"`
	CategoryID     int64       `json:"category_id"`
	Status         OrderStatus `json:"status"`
	Description    string      `json:"description"`
	Address        string      `json:"address"`
	BasePrice      Numeric     `json:"base_price"`
	MaterialsPrice Numeric     `json:"materials_price"`
	Commission     Numeric     `json:"commission"`
	TotalPrice     Numeric     `json:"total_price"`
	CreatedAt      Timestamp   `json:"created_at"`
	AcceptedAt     Timestamp   `json:"accepted_at"`
	CompletedAt    Timestamp   `json:"completed_at"`
	CancelledAt    Timestamp   `json:"cancelled_at"`
}

// IsActive - заказ в работе: новый, принятый или выполняемый.
func (s OrderStatus) IsActive() bool {
	switch s {
	case OrderStatusNew, OrderStatusAccepted, OrderStatusInProgress:
		return true
	}
	return false
}
