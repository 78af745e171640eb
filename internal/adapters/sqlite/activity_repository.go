package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspay/backoffice/internal/adapters/sqlite/gormsqlite"
	"github.com/campuspay/backoffice/internal/core/domain"
)

type ActivityModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	UserID     string    `gorm:"column:user_id;not null"`
	Action     string    `gorm:"column:action;not null"`
	EntityType string    `gorm:"column:entity_type;not null"`
	EntityID   *string   `gorm:"column:entity_id"`
	Details    *string   `gorm:"column:details"`
	IPAddress  *string   `gorm:"column:ip_address"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (ActivityModel) TableName() string {
	return "activity_logs"
}

// ActivityRepository persists and queries the append-only activity log.
type ActivityRepository struct {
	db *gormsqlite.DB
}

func NewActivityRepository(db *gormsqlite.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, entry domain.ActivityEntry, details string) error {
	model := ActivityModel{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   nullable(entry.EntityID),
		Details:    nullable(details),
		IPAddress:  nullable(entry.IPAddress),
		CreatedAt:  entry.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ActivityEntry, error) {
	var rows []ActivityModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&ActivityModel{}).
			Where("user_id = ?", userID).
			Order("created_at DESC, rowid DESC").
			Limit(limit).
			Offset(offset).
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list activity by user: %w", err)
	}

	result := make([]domain.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, toActivityEntry(row))
	}
	return result, nil
}

type entityActivityRow struct {
	ActivityModel `gorm:"embedded"`
	UserName      *string `gorm:"column:user_name"`
}

func (r *ActivityRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.EntityActivityEntry, error) {
	var rows []entityActivityRow
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Table("activity_logs").
			Select("activity_logs.*, users.name AS user_name").
			Joins("LEFT JOIN users ON users.id = activity_logs.user_id").
			Where("activity_logs.entity_type = ? AND activity_logs.entity_id = ?", entityType, entityID).
			Order("activity_logs.created_at DESC, activity_logs.rowid DESC").
			Limit(limit).
			Offset(offset).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list activity by entity: %w", err)
	}

	result := make([]domain.EntityActivityEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.EntityActivityEntry{
			ActivityEntry: toActivityEntry(row.ActivityModel),
			UserName:      deref(row.UserName),
		})
	}
	return result, nil
}

type cardActivityRow struct {
	ActivityModel `gorm:"embedded"`
	UserName      *string `gorm:"column:user_name"`
	UserRole      *string `gorm:"column:user_role"`
	CardNumber    *string `gorm:"column:card_number"`
	HolderName    *string `gorm:"column:holder_name"`
}

// ListCardActivity applies the filter's predicates with AND semantics; each
// predicate is bound as a query parameter, never concatenated.
func (r *ActivityRepository) ListCardActivity(ctx context.Context, filter domain.ActivityFilter) ([]domain.CardActivityEntry, error) {
	var rows []cardActivityRow
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Table("activity_logs").
			Select(`activity_logs.*,
				users.name AS user_name,
				users.role AS user_role,
				university_cards.card_number AS card_number,
				students.name AS holder_name`).
			Joins("LEFT JOIN users ON users.id = activity_logs.user_id").
			Joins("LEFT JOIN university_cards ON university_cards.id = activity_logs.entity_id").
			Joins("LEFT JOIN students ON students.id = university_cards.student_id").
			Where("activity_logs.entity_type = ?", domain.EntityUniversityCard)

		if filter.UserID != "" {
			query = query.Where("activity_logs.user_id = ?", filter.UserID)
		}
		if !filter.Start.IsZero() {
			query = query.Where("activity_logs.created_at >= ?", filter.Start)
		}
		if !filter.End.IsZero() {
			query = query.Where("activity_logs.created_at <= ?", filter.End)
		}
		if filter.Action != "" {
			query = query.Where("activity_logs.action = ?", filter.Action)
		}

		return query.Order("activity_logs.created_at DESC, activity_logs.rowid DESC").
			Limit(filter.Limit).
			Offset(filter.Offset).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list card activity: %w", err)
	}

	result := make([]domain.CardActivityEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.CardActivityEntry{
			ActivityEntry: toActivityEntry(row.ActivityModel),
			UserName:      deref(row.UserName),
			UserRole:      deref(row.UserRole),
			CardNumber:    deref(row.CardNumber),
			HolderName:    deref(row.HolderName),
		})
	}
	return result, nil
}

func toActivityEntry(model ActivityModel) domain.ActivityEntry {
	return domain.ActivityEntry{
		ID:         model.ID,
		UserID:     model.UserID,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   deref(model.EntityID),
		Details:    domain.DecodeDetails(deref(model.Details)),
		IPAddress:  deref(model.IPAddress),
		CreatedAt:  model.CreatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
