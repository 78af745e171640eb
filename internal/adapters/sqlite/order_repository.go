package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuspay/backoffice/internal/adapters/sqlite/gormsqlite"
	"github.com/campuspay/backoffice/internal/core/domain"
	"gorm.io/gorm"
)

type orderModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	StudentID string    `gorm:"column:student_id;not null"`
	Total     int64     `gorm:"column:total;not null"`
	Status    string    `gorm:"column:status;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (orderModel) TableName() string {
	return "orders"
}

type OrderRepository struct {
	db *gormsqlite.DB
}

func NewOrderRepository(db *gormsqlite.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	now := time.Now().UTC()
	model := orderModel{
		ID:        order.ID,
		StudentID: order.StudentID,
		Total:     order.Total,
		Status:    order.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return toOrder(model), nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	var model orderModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return toOrder(model), nil
}

func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	var models []orderModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&orderModel{}).
			Order("created_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(models))
	for _, model := range models {
		orders = append(orders, toOrder(model))
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) (domain.Order, error) {
	var model orderModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&orderModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":     status,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return toOrder(model), nil
}

func toOrder(model orderModel) domain.Order {
	return domain.Order{
		ID:        model.ID,
		StudentID: model.StudentID,
		Total:     model.Total,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
