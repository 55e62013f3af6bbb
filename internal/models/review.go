// internal/models/review.go
package models

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type Review struct {
	ID        int64        `json:"id"`
	OrderID   int64        `json:"order_id"`
	UserID    int64        `json:"user_id"`
	MasterID  int64        `json:"master_id"`
	Rating    Numeric      `json:"rating"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status"`
	Photos    PhotoList    `json:"photos,omitempty"`
	CreatedAt Timestamp    `json:"created_at"`
}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}
