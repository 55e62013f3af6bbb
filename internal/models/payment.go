package models

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID             int64         `json:"id"`
	OrderID        int64         `json:"order_id"`
	UserID         int64         `json:"user_id"`
	MasterID       int64         `json:"master_id"`
	Amount         Numeric       `json:"amount"`
	Commission     Numeric       `json:"commission"`
	MasterEarnings Numeric       `json:"master_earnings"`
	Method         string        `json:"method"`
	Status         PaymentStatus `json:"status"`
	CreatedAt      Timestamp     `json:"created_at"`
	CompletedAt    Timestamp     `json:"completed_at"`
}

// PaidAt - дата платежа для группировки: created_at, а если её нет - completed_at.
func (p Payment) PaidAt() Timestamp {
	if p.CreatedAt.Valid() {
		return p.CreatedAt
	}
	return p.CompletedAt
}
