package usecase

import (
	"context"
	"encoding/json"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/ports"
	"github.com/google/uuid"
)

type StudentService struct {
	students ports.StudentRepository
	payloads *PayloadValidator
	activity *ActivityService
}

func NewStudentService(students ports.StudentRepository, payloads *PayloadValidator, activity *ActivityService) *StudentService {
	return &StudentService{students: students, payloads: payloads, activity: activity}
}

type StudentPayload struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	StudentNumber string `json:"student_number"`
}

func (s *StudentService) Create(ctx context.Context, meta domain.RequestMeta, payload json.RawMessage) (domain.Student, error) {
	req, err := s.decodeStudentPayload(payload)
	if err != nil {
		return domain.Student{}, err
	}

	student := domain.Student{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         req.Email,
		StudentNumber: req.StudentNumber,
	}
	if err := student.Validate(); err != nil {
		return domain.Student{}, err
	}

	created, err := s.students.Create(ctx, student)
	if err != nil {
		return domain.Student{}, err
	}

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionCreate,
		EntityType: domain.EntityStudent,
		EntityID:   created.ID,
		Details: map[string]any{
			"message":        "Student registered",
			"student_number": created.StudentNumber,
		},
		IPAddress: meta.IPAddress,
	}, meta.SkipAudit)

	return created, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (domain.Student, error) {
	return s.students.Get(ctx, id)
}

func (s *StudentService) List(ctx context.Context, limit, offset int) ([]domain.Student, error) {
	limit, offset = clampPage(limit, offset, defaultHistoryLimit)
	return s.students.List(ctx, limit, offset)
}

func (s *StudentService) Update(ctx context.Context, meta domain.RequestMeta, id string, payload json.RawMessage) (domain.Student, error) {
	req, err := s.decodeStudentPayload(payload)
	if err != nil {
		return domain.Student{}, err
	}

	student := domain.Student{
		ID:            id,
		Name:          req.Name,
		Email:         req.Email,
		StudentNumber: req.StudentNumber,
	}
	if err := student.Validate(); err != nil {
		return domain.Student{}, err
	}

	updated, err := s.students.Update(ctx, student)
	if err != nil {
		return domain.Student{}, err
	}

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionUpdate,
		EntityType: domain.EntityStudent,
		EntityID:   updated.ID,
		Details: map[string]any{
			"message":        "Student updated",
			"student_number": updated.StudentNumber,
		},
		IPAddress: meta.IPAddress,
	}, meta.SkipAudit)

	return updated, nil
}

func (s *StudentService) Delete(ctx context.Context, meta domain.RequestMeta, id string) (bool, error) {
	deleted, err := s.students.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.activity.Record(ctx, domain.NewActivity{
			UserID:     meta.UserID,
			Action:     domain.ActionDelete,
			EntityType: domain.EntityStudent,
			EntityID:   id,
			IPAddress:  meta.IPAddress,
		}, meta.SkipAudit)
	}
	return deleted, nil
}

func (s *StudentService) decodeStudentPayload(payload json.RawMessage) (StudentPayload, error) {
	if err := s.payloads.Validate("student", payload); err != nil {
		return StudentPayload{}, err
	}
	var req StudentPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return StudentPayload{}, domain.ErrInvalidField
	}
	return req, nil
}
