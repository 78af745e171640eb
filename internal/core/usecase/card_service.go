package usecase

import (
	"context"
	"encoding/json"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/ports"
	"github.com/google/uuid"
)

type CardService struct {
	cards    ports.CardRepository
	payloads *PayloadValidator
	activity *ActivityService
}

func NewCardService(cards ports.CardRepository, payloads *PayloadValidator, activity *ActivityService) *CardService {
	return &CardService{cards: cards, payloads: payloads, activity: activity}
}

type CardPayload struct {
	CardNumber string `json:"card_number"`
	StudentID  string `json:"student_id"`
	Balance    int64  `json:"balance"`
	Active     *bool  `json:"active"`
}

type TopUpPayload struct {
	Amount int64 `json:"amount"`
}

func (s *CardService) Create(ctx context.Context, meta domain.RequestMeta, payload json.RawMessage) (domain.Card, error) {
	req, err := s.decodeCardPayload(payload)
	if err != nil {
		return domain.Card{}, err
	}

	card := domain.Card{
		ID:         uuid.NewString(),
		CardNumber: req.CardNumber,
		StudentID:  req.StudentID,
		Balance:    req.Balance,
		Active:     true,
	}
	if req.Active != nil {
		card.Active = *req.Active
	}
	if err := card.Validate(); err != nil {
		return domain.Card{}, err
	}

	created, err := s.cards.Create(ctx, card)
	if err != nil {
		return domain.Card{}, err
	}

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionCreate,
		EntityType: domain.EntityUniversityCard,
		EntityID:   created.ID,
		Details: map[string]any{
			"message":     "University card created",
			"card_number": created.CardNumber,
			"student_id":  created.StudentID,
		},
		IPAddress: meta.IPAddress,
	}, meta.SkipAudit)

	return created, nil
}

// Get submits a view action to the sink; the suppression policy drops plain
// card views, so the submission is deliberate noise the sink filters.
func (s *CardService) Get(ctx context.Context, meta domain.RequestMeta, id string) (domain.Card, error) {
	card, err := s.cards.Get(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionView,
		EntityType: domain.EntityUniversityCard,
		EntityID:   card.ID,
		IPAddress:  meta.IPAddress,
	}, meta.SkipAudit)

	return card, nil
}

func (s *CardService) List(ctx context.Context, limit, offset int) ([]domain.Card, error) {
	limit, offset = clampPage(limit, offset, defaultHistoryLimit)
	return s.cards.List(ctx, limit, offset)
}

func (s *CardService) Update(ctx context.Context, meta domain.RequestMeta, id string, payload json.RawMessage) (domain.Card, error) {
	req, err := s.decodeCardPayload(payload)
	if err != nil {
		return domain.Card{}, err
	}

	card := domain.Card{
		ID:         id,
		CardNumber: req.CardNumber,
		StudentID:  req.StudentID,
		Balance:    req.Balance,
		Active:     true,
	}
	if req.Active != nil {
		card.Active = *req.Active
	}
	if err := card.Validate(); err != nil {
		return domain.Card{}, err
	}

	updated, err := s.cards.Update(ctx, card)
	if err != nil {
		return domain.Card{}, err
	}

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionUpdate,
		EntityType: domain.EntityUniversityCard,
		EntityID:   updated.ID,
		Details: map[string]any{
			"message":     "University card updated",
			"card_number": updated.CardNumber,
			"active":      updated.Active,
		},
		IPAddress: meta.IPAddress,
	}, meta.SkipAudit)

	return updated, nil
}

func (s *CardService) TopUp(ctx context.Context, meta domain.RequestMeta, id string, payload json.RawMessage) (domain.Card, error) {
	var req TopUpPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.Amount <= 0 {
		return domain.Card{}, domain.ErrInvalidField
	}

	// The increment happens inside the repository's write transaction;
	// reading the balance here first would lose concurrent credits.
	updated, err := s.cards.Credit(ctx, id, req.Amount)
	if err != nil {
		return domain.Card{}, err
	}
	oldBalance := updated.Balance - req.Amount

	s.activity.Record(ctx, domain.NewActivity{
		UserID:     meta.UserID,
		Action:     domain.ActionTopUp,
		EntityType: domain.EntityUniversityCard,
		EntityID:   updated.ID,
		Details: map[string]any{
			"message":     "Card balance topped up",
			"amount":      req.Amount,
			"old_balance": oldBalance,
			"new_balance": updated.Balance,
		},
		IPAddress: meta.IPAddress,
	}, meta.SkipAudit)

	return updated, nil
}

func (s *CardService) decodeCardPayload(payload json.RawMessage) (CardPayload, error) {
	if err := s.payloads.Validate("card", payload); err != nil {
		return CardPayload{}, err
	}
	var req CardPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return CardPayload{}, domain.ErrInvalidField
	}
	return req, nil
}
