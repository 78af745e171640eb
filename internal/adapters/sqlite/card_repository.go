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

type cardModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CardNumber string    `gorm:"column:card_number;not null"`
	StudentID  string    `gorm:"column:student_id;not null"`
	Balance    int64     `gorm:"column:balance;not null"`
	Active     bool      `gorm:"column:active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (cardModel) TableName() string {
	return "university_cards"
}

type CardRepository struct {
	db *gormsqlite.DB
}

func NewCardRepository(db *gormsqlite.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, card domain.Card) (domain.Card, error) {
	now := time.Now().UTC()
	model := cardModel{
		ID:         card.ID,
		CardNumber: card.CardNumber,
		StudentID:  card.StudentID,
		Balance:    card.Balance,
		Active:     card.Active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("create card: %w", err)
	}
	return toCard(model), nil
}

func (r *CardRepository) Get(ctx context.Context, id string) (domain.Card, error) {
	var model cardModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Card{}, domain.ErrNotFound
		}
		return domain.Card{}, fmt.Errorf("get card: %w", err)
	}
	return toCard(model), nil
}

func (r *CardRepository) List(ctx context.Context, limit, offset int) ([]domain.Card, error) {
	var models []cardModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&cardModel{}).
			Order("created_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	cards := make([]domain.Card, 0, len(models))
	for _, model := range models {
		cards = append(cards, toCard(model))
	}
	return cards, nil
}

func (r *CardRepository) Update(ctx context.Context, card domain.Card) (domain.Card, error) {
	var model cardModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&cardModel{}).
			Where("id = ?", card.ID).
			Updates(map[string]any{
				"card_number": card.CardNumber,
				"student_id":  card.StudentID,
				"balance":     card.Balance,
				"active":      card.Active,
				"updated_at":  time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", card.ID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Card{}, domain.ErrNotFound
		}
		return domain.Card{}, fmt.Errorf("update card: %w", err)
	}
	return toCard(model), nil
}

// Credit increments the balance column in place inside one write
// transaction, so two concurrent credits never compute from a stale read.
func (r *CardRepository) Credit(ctx context.Context, id string, amount int64) (domain.Card, error) {
	var model cardModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&cardModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance + ?", amount),
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
			return domain.Card{}, domain.ErrNotFound
		}
		return domain.Card{}, fmt.Errorf("credit card: %w", err)
	}
	return toCard(model), nil
}

func toCard(model cardModel) domain.Card {
	return domain.Card{
		ID:         model.ID,
		CardNumber: model.CardNumber,
		StudentID:  model.StudentID,
		Balance:    model.Balance,
		Active:     model.Active,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
