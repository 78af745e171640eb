package usecase

import (
	"context"
	"encoding/json"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/ports"
	"github.com/google/uuid"
)

type OrderService struct {
	orders   ports.OrderRepository
	payloads *PayloadValidator
	activity *ActivityService
}

func NewOrderService(orders ports.OrderRepository, payloads *PayloadValidator, activity *ActivityService) *OrderService {
	return &OrderService{orders: orders, payloads: payloads, activity: activity}
}

type OrderPayload struct {
	StudentID string `json:"student_id"`
	Total     int64  `json:"total"`
	Status    string `json:"status"`
}

type OrderStatusPayload struct {
	Status string `json:"status"`
}

func (s *OrderService) Create(ctx context.Context, meta domain.RequestMeta, payload json.RawMessage) (domain.Order, error) {
	if err := s.payloads.Validate("order", payload); err != nil {
		return domain.Order{}, err
	}
	var req OrderPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return domain.Order{}, domain.ErrInvalidField
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		Total:     req.Total,
		Status:    req.Status,
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionCreate,
		EntityType: domain.EntityOrder,
		EntityID:   created.ID,
		Details: map[string]any{
			"message": "Order created",
			"total":   created.Total,
			"status":  created.Status,
		},
		IPAddress: meta.IPAddress,
	}, meta.SkipAudit)

	return created, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *OrderService) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	limit, offset = clampPage(limit, offset, defaultHistoryLimit)
	return s.orders.List(ctx, limit, offset)
}

func (s *OrderService) UpdateStatus(ctx context.Context, meta domain.RequestMeta, id string, payload json.RawMessage) (domain.Order, error) {
	var req OrderStatusPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.Status == "" {
		return domain.Order{}, domain.ErrInvalidField
	}

	updated, err := s.orders.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return domain.Order{}, err
	}

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionUpdate,
		EntityType: domain.EntityOrder,
		EntityID:   updated.ID,
		Details: map[string]any{
			"message": "Order status changed",
			"status":  updated.Status,
		},
		IPAddress: meta.IPAddress,
	}, meta.SkipAudit)

	return updated, nil
}
