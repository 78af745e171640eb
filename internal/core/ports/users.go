package ports

import (
	"context"

	"github.com/campuspay/backoffice/internal/core/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	Upsert(ctx context.Context, user domain.User) error
}
