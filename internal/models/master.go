// internal/models/master.go
package models

type MasterStatus string

const (
	MasterStatusActive   MasterStatus = "active"
	MasterStatusInactive MasterStatus = "inactive"
	MasterStatusBlocked  MasterStatus = "blocked"
)

// Master - исполнитель услуг.
type Master struct {
	ID              int64        `json:"id"`
	FullName        string       `json:"full_name"`
	Phone           string       `json:"phone"`
	Email           string       `json:"email"`
	CategoryID      int64        `json:"category_id"`
	Status          MasterStatus `json:"status"`
	IsVerified      Flag         `json:"is_verified"`
	IsPro           Flag         `json:"is_pro"`
	IsInsured       Flag         `json:"is_insured"`
	Rating          Numeric      `json:"rating"`
	ReviewsCount    Numeric      `json:"reviews_count"`
	CompletedOrders Numeric      `json:"completed_orders"`
	TotalEarnings   Numeric      `json:"total_earnings"`
	CreatedAt       Timestamp    `json:"created_at"`
}

func (s MasterStatus) Valid() bool {
	switch s {
	case MasterStatusActive, MasterStatusInactive, MasterStatusBlocked:
		return true
	}
	return false
}
