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

type studentModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Email         string    `gorm:"column:email;not null"`
	StudentNumber string    `gorm:"column:student_number;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

func (studentModel) TableName() string {
	return "students"
}

type StudentRepository struct {
	db *gormsqlite.DB
}

func NewStudentRepository(db *gormsqlite.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, student domain.Student) (domain.Student, error) {
	now := time.Now().UTC()
	model := studentModel{
		ID:            student.ID,
		Name:          student.Name,
		Email:         student.Email,
		StudentNumber: student.StudentNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Student{}, fmt.Errorf("create student: %w", err)
	}
	return toStudent(model), nil
}

func (r *StudentRepository) Get(ctx context.Context, id string) (domain.Student, error) {
	var model studentModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Student{}, domain.ErrNotFound
		}
		return domain.Student{}, fmt.Errorf("get student: %w", err)
	}
	return toStudent(model), nil
}

func (r *StudentRepository) List(ctx context.Context, limit, offset int) ([]domain.Student, error) {
	var models []studentModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&studentModel{}).
			Order("name ASC").
			Limit(limit).
			Offset(offset).
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	students := make([]domain.Student, 0, len(models))
	for _, model := range models {
		students = append(students, toStudent(model))
	}
	return students, nil
}

func (r *StudentRepository) Update(ctx context.Context, student domain.Student) (domain.Student, error) {
	var model studentModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&studentModel{}).
			Where("id = ?", student.ID).
			Updates(map[string]any{
				"name":           student.Name,
				"email":          student.Email,
				"student_number": student.StudentNumber,
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", student.ID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Student{}, domain.ErrNotFound
		}
		return domain.Student{}, fmt.Errorf("update student: %w", err)
	}
	return toStudent(model), nil
}

func (r *StudentRepository) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("id = ?", id).Delete(&studentModel{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return affected > 0, nil
}

func toStudent(model studentModel) domain.Student {
	return domain.Student{
		ID:            model.ID,
		Name:          model.Name,
		Email:         model.Email,
		StudentNumber: model.StudentNumber,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
