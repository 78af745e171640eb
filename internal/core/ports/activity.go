package ports

import (
	"context"

	"github.com/campuspay/backoffice/internal/core/domain"
)

// ActivityRepository is the append-only store behind the audit trail. There
// is deliberately no update or delete.
type ActivityRepository interface {
	Insert(ctx context.Context, entry domain.ActivityEntry, details string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ActivityEntry, error)
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.EntityActivityEntry, error)
	ListCardActivity(ctx context.Context, filter domain.ActivityFilter) ([]domain.CardActivityEntry, error)
}
