package domain

import "time"

// Order statuses form an open string enum like actions and entity types.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Order is a meal order placed against a student account. Total is in cents.
type Order struct {
	ID        string
	StudentID string
	Total     int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o Order) Validate() error {
	if o.StudentID == "" || o.Status == "" {
		return ErrInvalidField
	}
	if o.Total < 0 {
		return ErrInvalidField
	}
	return nil
}
