package domain

import "time"

// Card is a prepaid university card. Balance is stored in cents to avoid
// floating-point accounting.
type Card struct {
	ID         string
	CardNumber string
	StudentID  string
	Balance    int64
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (c Card) Validate() error {
	if c.CardNumber == "" || c.StudentID == "" {
		return ErrInvalidField
	}
	if c.Balance < 0 {
		return ErrInvalidField
	}
	return nil
}
