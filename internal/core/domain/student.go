package domain

import "time"

type Student struct {
	ID            string
	Name          string
	Email         string
	StudentNumber string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s Student) Validate() error {
	if s.Name == "" || s.StudentNumber == "" {
		return ErrInvalidField
	}
	return nil
}
