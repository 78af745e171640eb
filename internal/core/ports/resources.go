package ports

import (
	"context"

	"github.com/campuspay/backoffice/internal/core/domain"
)

type CardRepository interface {
	Create(ctx context.Context, card domain.Card) (domain.Card, error)
	Get(ctx context.Context, id string) (domain.Card, error)
	List(ctx context.Context, limit, offset int) ([]domain.Card, error)
	Update(ctx context.Context, card domain.Card) (domain.Card, error)
	// Credit adds amount to the card balance as a single atomic update and
	// returns the card with the new balance. Concurrent credits must all
	// apply; no caller-side read-modify-write.
	Credit(ctx context.Context, id string, amount int64) (domain.Card, error)
}

type StudentRepository interface {
	Create(ctx context.Context, student domain.Student) (domain.Student, error)
	Get(ctx context.Context, id string) (domain.Student, error)
	List(ctx context.Context, limit, offset int) ([]domain.Student, error)
	Update(ctx context.Context, student domain.Student) (domain.Student, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, limit, offset int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Order, error)
}
