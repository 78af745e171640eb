package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/campuspay/backoffice/internal/core/domain"
)

type stubCardRepo struct {
	mu    sync.Mutex
	cards map[string]domain.Card
}

func newStubCardRepo() *stubCardRepo {
	return &stubCardRepo{cards: map[string]domain.Card{}}
}

func (s *stubCardRepo) Create(_ context.Context, card domain.Card) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.ID] = card
	return card, nil
}

func (s *stubCardRepo) Get(_ context.Context, id string) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	return card, nil
}

func (s *stubCardRepo) List(context.Context, int, int) ([]domain.Card, error) {
	return nil, nil
}

func (s *stubCardRepo) Update(_ context.Context, card domain.Card) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	s.cards[card.ID] = card
	return card, nil
}

func (s *stubCardRepo) Credit(_ context.Context, id string, amount int64) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	card.Balance += amount
	s.cards[id] = card
	return card, nil
}

func newCardFixture(t *testing.T) (*CardService, *stubCardRepo, *stubActivityRepo) {
	t.Helper()
	payloads, err := NewPayloadValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	cardRepo := newStubCardRepo()
	activityRepo := &stubActivityRepo{}
	activity := NewActivityService(activityRepo, testMetrics())
	return NewCardService(cardRepo, payloads, activity), cardRepo, activityRepo
}

func TestCardCreateAuditsWithDetail(t *testing.T) {
	svc, _, activityRepo := newCardFixture(t)
	meta := domain.RequestMeta{UserID: "u1", IPAddress: "10.0.0.1"}

	card, err := svc.Create(context.Background(), meta, json.RawMessage(`{"card_number":"C-100","student_id":"s1","balance":500}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if card.ID == "" || !card.Active {
		t.Fatalf("unexpected card: %+v", card)
	}

	if activityRepo.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", activityRepo.count())
	}
	entry := activityRepo.inserts[0]
	if entry.entry.Action != domain.ActionCreate || entry.entry.EntityType != domain.EntityUniversityCard {
		t.Fatalf("unexpected audit entry: %+v", entry.entry)
	}
	if entry.entry.EntityID != card.ID {
		t.Fatalf("expected entity id %q, got %q", card.ID, entry.entry.EntityID)
	}
}

func TestCardCreateSchemaViolation(t *testing.T) {
	svc, _, activityRepo := newCardFixture(t)

	_, err := svc.Create(context.Background(), domain.RequestMeta{UserID: "u1"}, json.RawMessage(`{"student_id":"s1"}`))
	var violation *domain.ErrSchemaViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if activityRepo.count() != 0 {
		t.Fatalf("expected no audit entry, got %d", activityRepo.count())
	}
}

func TestCardGetViewIsSuppressed(t *testing.T) {
	svc, cardRepo, activityRepo := newCardFixture(t)
	cardRepo.cards["c1"] = domain.Card{ID: "c1", CardNumber: "C-100", StudentID: "s1", Active: true}

	if _, err := svc.Get(context.Background(), domain.RequestMeta{UserID: "u1"}, "c1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if activityRepo.count() != 0 {
		t.Fatalf("expected card view suppressed, got %d entries", activityRepo.count())
	}
}

func TestCardTopUpRecordsBalances(t *testing.T) {
	svc, cardRepo, activityRepo := newCardFixture(t)
	cardRepo.cards["c1"] = domain.Card{ID: "c1", CardNumber: "C-100", StudentID: "s1", Balance: 200, Active: true}

	card, err := svc.TopUp(context.Background(), domain.RequestMeta{UserID: "u1"}, "c1", json.RawMessage(`{"amount":300}`))
	if err != nil {
		t.Fatalf("topup: %v", err)
	}
	if card.Balance != 500 {
		t.Fatalf("expected balance 500, got %d", card.Balance)
	}

	if activityRepo.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", activityRepo.count())
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(activityRepo.inserts[0].details), &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details["old_balance"] != float64(200) || details["new_balance"] != float64(500) {
		t.Fatalf("unexpected balances in details: %v", details)
	}
}

func TestCardTopUpConcurrentCreditsAllApply(t *testing.T) {
	svc, cardRepo, activityRepo := newCardFixture(t)
	cardRepo.cards["c1"] = domain.Card{ID: "c1", CardNumber: "C-100", StudentID: "s1", Balance: 100, Active: true}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.TopUp(context.Background(), domain.RequestMeta{UserID: "u1"}, "c1", json.RawMessage(`{"amount":500}`)); err != nil {
				t.Errorf("topup: %v", err)
			}
		}()
	}
	wg.Wait()

	card, err := cardRepo.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if card.Balance != 1100 {
		t.Fatalf("expected both credits to apply for balance 1100, got %d", card.Balance)
	}

	if activityRepo.count() != 2 {
		t.Fatalf("expected 2 audit entries, got %d", activityRepo.count())
	}
	for _, insert := range activityRepo.inserts {
		var details map[string]any
		if err := json.Unmarshal([]byte(insert.details), &details); err != nil {
			t.Fatalf("decode details: %v", err)
		}
		oldBalance, newBalance := details["old_balance"].(float64), details["new_balance"].(float64)
		if newBalance-oldBalance != 500 {
			t.Fatalf("expected detail balances to differ by the credit amount, got old=%v new=%v", oldBalance, newBalance)
		}
	}
}

func TestCardTopUpRejectsNonPositiveAmount(t *testing.T) {
	svc, cardRepo, _ := newCardFixture(t)
	cardRepo.cards["c1"] = domain.Card{ID: "c1", CardNumber: "C-100", StudentID: "s1", Active: true}

	if _, err := svc.TopUp(context.Background(), domain.RequestMeta{UserID: "u1"}, "c1", json.RawMessage(`{"amount":0}`)); !errors.Is(err, domain.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestCardSkipFlagPropagates(t *testing.T) {
	svc, _, activityRepo := newCardFixture(t)
	meta := domain.RequestMeta{UserID: "u1", SkipAudit: true}

	_, err := svc.Create(context.Background(), meta, json.RawMessage(`{"card_number":"C-100","student_id":"s1"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if activityRepo.count() != 0 {
		t.Fatalf("expected skip flag to suppress audit, got %d entries", activityRepo.count())
	}
}
