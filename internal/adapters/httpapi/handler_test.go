package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/usecase"
	"github.com/campuspay/backoffice/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type stubUserRepo struct {
	users map[string]domain.User
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (s *stubUserRepo) Upsert(context.Context, domain.User) error { return nil }

type stubActivityRepo struct {
	mu      sync.Mutex
	inserts []domain.ActivityEntry
}

func (s *stubActivityRepo) Insert(_ context.Context, entry domain.ActivityEntry, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts = append(s.inserts, entry)
	return nil
}

func (s *stubActivityRepo) ListByUser(context.Context, string, int, int) ([]domain.ActivityEntry, error) {
	return []domain.ActivityEntry{{ID: "e1", UserID: "u1", Action: "create", EntityType: "student"}}, nil
}

func (s *stubActivityRepo) ListByEntity(context.Context, string, string, int, int) ([]domain.EntityActivityEntry, error) {
	return nil, nil
}

func (s *stubActivityRepo) ListCardActivity(context.Context, domain.ActivityFilter) ([]domain.CardActivityEntry, error) {
	return nil, nil
}

func (s *stubActivityRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserts)
}

type stubCardRepo struct{}

func (s *stubCardRepo) Create(_ context.Context, card domain.Card) (domain.Card, error) {
	return card, nil
}

func (s *stubCardRepo) Get(_ context.Context, id string) (domain.Card, error) {
	return domain.Card{ID: id, CardNumber: "C-100", StudentID: "s1", Active: true}, nil
}

func (s *stubCardRepo) List(context.Context, int, int) ([]domain.Card, error) { return nil, nil }

func (s *stubCardRepo) Update(_ context.Context, card domain.Card) (domain.Card, error) {
	return card, nil
}

func (s *stubCardRepo) Credit(_ context.Context, id string, amount int64) (domain.Card, error) {
	return domain.Card{ID: id, CardNumber: "C-100", StudentID: "s1", Balance: amount, Active: true}, nil
}

type stubStudentRepo struct{}

func (s *stubStudentRepo) Create(_ context.Context, student domain.Student) (domain.Student, error) {
	return student, nil
}

func (s *stubStudentRepo) Get(_ context.Context, id string) (domain.Student, error) {
	return domain.Student{ID: id, Name: "Jonas", StudentNumber: "S-001"}, nil
}

func (s *stubStudentRepo) List(context.Context, int, int) ([]domain.Student, error) {
	return nil, nil
}

func (s *stubStudentRepo) Update(_ context.Context, student domain.Student) (domain.Student, error) {
	return student, nil
}

func (s *stubStudentRepo) Delete(context.Context, string) (bool, error) { return true, nil }

type stubOrderRepo struct{}

func (s *stubOrderRepo) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	return order, nil
}

func (s *stubOrderRepo) Get(_ context.Context, id string) (domain.Order, error) {
	return domain.Order{ID: id, StudentID: "s1", Status: "pending"}, nil
}

func (s *stubOrderRepo) List(context.Context, int, int) ([]domain.Order, error) { return nil, nil }

func (s *stubOrderRepo) UpdateStatus(_ context.Context, id, status string) (domain.Order, error) {
	return domain.Order{ID: id, StudentID: "s1", Status: status}, nil
}

func testRouter(t *testing.T, users map[string]domain.User) (http.Handler, *stubActivityRepo) {
	t.Helper()

	payloads, err := usecase.NewPayloadValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	activityRepo := &stubActivityRepo{}
	identity := usecase.NewIdentityService(&stubUserRepo{users: users}, m, false)
	activity := usecase.NewActivityService(activityRepo, m)
	cards := usecase.NewCardService(&stubCardRepo{}, payloads, activity)
	students := usecase.NewStudentService(&stubStudentRepo{}, payloads, activity)
	orders := usecase.NewOrderService(&stubOrderRepo{}, payloads, activity)

	return NewHandler(identity, activity, cards, students, orders).Router(), activityRepo
}

func TestRequestWithoutIdentityHeaders(t *testing.T) {
	h, _ := testRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/students", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBearerTokenFallbackIdentity(t *testing.T) {
	h, _ := testRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/students", nil)
	req.Header.Set("Authorization", "Bearer u7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestStoreRoleOverridesHeaderForWrites(t *testing.T) {
	users := map[string]domain.User{"u1": {ID: "u1", Name: "Alma", Role: domain.RoleViewer}}
	h, _ := testRouter(t, users)

	req := httptest.NewRequest(http.MethodPost, "/v1/students", strings.NewReader(`{"name":"A","student_number":"S-1"}`))
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("X-User-Role", "admin")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stored viewer role, got %d", rec.Code)
	}
}

func TestFallbackRoleHeaderAllowsWrite(t *testing.T) {
	h, activityRepo := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/students", strings.NewReader(`{"name":"A","student_number":"S-1"}`))
	req.Header.Set("X-User-Id", "u9")
	req.Header.Set("X-User-Role", "staff")
	req.Header.Set("X-Forwarded-For", "192.0.2.10, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	if activityRepo.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", activityRepo.count())
	}
	entry := activityRepo.inserts[0]
	if entry.UserID != "u9" || entry.IPAddress != "192.0.2.10" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestSkipAuditHeader(t *testing.T) {
	h, activityRepo := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/students", strings.NewReader(`{"name":"A","student_number":"S-1"}`))
	req.Header.Set("X-User-Id", "u9")
	req.Header.Set("X-User-Role", "staff")
	req.Header.Set("X-Skip-Audit", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if activityRepo.count() != 0 {
		t.Fatalf("expected no audit entries, got %d", activityRepo.count())
	}
}

func TestActivityRoutesRequireAdmin(t *testing.T) {
	users := map[string]domain.User{
		"staff1": {ID: "staff1", Role: domain.RoleStaff},
		"admin1": {ID: "admin1", Role: domain.RoleAdmin},
	}
	h, _ := testRouter(t, users)

	req := httptest.NewRequest(http.MethodGet, "/v1/activity/users/u1", nil)
	req.Header.Set("X-User-Id", "staff1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/activity/users/u1", nil)
	req.Header.Set("X-User-Id", "admin1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}

	var payload map[string][]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload["items"]) != 1 {
		t.Fatalf("expected 1 item, got %d", len(payload["items"]))
	}
}

func TestCardActivityInvalidDate(t *testing.T) {
	users := map[string]domain.User{"admin1": {ID: "admin1", Role: domain.RoleAdmin}}
	h, _ := testRouter(t, users)

	req := httptest.NewRequest(http.MethodGet, "/v1/activity/cards?start_date=01/02/2024", nil)
	req.Header.Set("X-User-Id", "admin1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateCardSchemaViolation(t *testing.T) {
	h, _ := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/cards", strings.NewReader(`{"student_id":"s1"}`))
	req.Header.Set("X-User-Id", "u9")
	req.Header.Set("X-User-Role", "staff")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "schema validation failed") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGetCardViewNotAudited(t *testing.T) {
	h, activityRepo := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/cards/c1", nil)
	req.Header.Set("X-User-Id", "u9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if activityRepo.count() != 0 {
		t.Fatalf("expected card view suppressed, got %d entries", activityRepo.count())
	}
}

func TestInvalidJSONBody(t *testing.T) {
	h, _ := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{"student_id":`))
	req.Header.Set("X-User-Id", "u9")
	req.Header.Set("X-User-Role", "staff")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTrailingJSONRejected(t *testing.T) {
	h, _ := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{"student_id":"s1","total":100} {}`))
	req.Header.Set("X-User-Id", "u9")
	req.Header.Set("X-User-Role", "staff")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
