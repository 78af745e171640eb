package usecase

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/ports"
	"github.com/campuspay/backoffice/internal/platform/metrics"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	defaultCardLimit    = 100
	maxListLimit        = 1000

	dayFormat = "2006-01-02"
)

// ActivityService is both halves of the activity log: the write-side sink
// with its suppression rules and the read-side query service. Auditing is
// advisory: Record never returns an error, and a failed write never breaks
// the operation that triggered it.
type ActivityService struct {
	repo    ports.ActivityRepository
	metrics *metrics.Metrics
}

func NewActivityService(repo ports.ActivityRepository, m *metrics.Metrics) *ActivityService {
	return &ActivityService{repo: repo, metrics: m}
}

// Record persists act unless a suppression rule drops it first. Rules apply
// in order, first match wins: the caller's opt-out flag, a detail message
// mentioning revenue, and plain views of university cards. A suppressed
// entry is a success from the caller's point of view.
func (s *ActivityService) Record(ctx context.Context, act domain.NewActivity, skip bool) bool {
	if skip {
		s.metrics.ActivitySuppressedTotal.Inc()
		return true
	}
	if msg := detailMessage(act.Details); strings.Contains(strings.ToLower(msg), "revenue") {
		s.metrics.ActivitySuppressedTotal.Inc()
		return true
	}
	if act.EntityType == domain.EntityUniversityCard && act.Action == domain.ActionView {
		s.metrics.ActivitySuppressedTotal.Inc()
		return true
	}

	if err := act.Validate(); err != nil {
		log.Printf("activity: dropping malformed entry (action=%q entity=%q): %v", act.Action, act.EntityType, err)
		return false
	}

	details := ""
	if act.Details != nil {
		encoded, err := json.Marshal(act.Details)
		if err != nil {
			log.Printf("activity: cannot serialize details for action=%q entity=%q: %v", act.Action, act.EntityType, err)
		} else {
			details = string(encoded)
		}
	}

	entry := domain.ActivityEntry{
		ID:         uuid.NewString(),
		UserID:     act.UserID,
		Action:     act.Action,
		EntityType: act.EntityType,
		EntityID:   act.EntityID,
		IPAddress:  act.IPAddress,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, entry, details); err != nil {
		log.Printf("activity: insert failed for action=%q entity=%q: %v", act.Action, act.EntityType, err)
		s.metrics.ActivityWriteErrorsTotal.Inc()
		return false
	}

	s.metrics.ActivityRecordedTotal.Inc()
	return true
}

func (s *ActivityService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ActivityEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidField
	}
	limit, offset = clampPage(limit, offset, defaultHistoryLimit)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *ActivityService) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.EntityActivityEntry, error) {
	if strings.TrimSpace(entityType) == "" || strings.TrimSpace(entityID) == "" {
		return nil, domain.ErrInvalidField
	}
	limit, offset = clampPage(limit, offset, defaultHistoryLimit)
	return s.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}

// CardActivityQuery carries the optional predicates of the card-focused
// view. Dates are day-granular, inclusive on both ends.
type CardActivityQuery struct {
	UserID    string
	StartDate string
	EndDate   string
	Action    string
	Limit     int
	Offset    int
}

func (s *ActivityService) ListCardActivity(ctx context.Context, query CardActivityQuery) ([]domain.CardActivityEntry, error) {
	filter := domain.ActivityFilter{
		UserID: strings.TrimSpace(query.UserID),
		Action: strings.TrimSpace(query.Action),
	}

	if query.StartDate != "" {
		day, err := time.Parse(dayFormat, query.StartDate)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		filter.Start = day
	}
	if query.EndDate != "" {
		day, err := time.Parse(dayFormat, query.EndDate)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		filter.End = day.Add(24*time.Hour - time.Second)
	}

	filter.Limit, filter.Offset = clampPage(query.Limit, query.Offset, defaultCardLimit)
	return s.repo.ListCardActivity(ctx, filter)
}

// detailMessage digs the human-readable message field out of whatever shape
// the caller passed as detail.
func detailMessage(details any) string {
	var m map[string]any
	switch v := details.(type) {
	case nil:
		return ""
	case map[string]any:
		m = v
	case json.RawMessage:
		if json.Unmarshal(v, &m) != nil {
			return ""
		}
	case []byte:
		if json.Unmarshal(v, &m) != nil {
			return ""
		}
	case string:
		if json.Unmarshal([]byte(v), &m) != nil {
			return ""
		}
	default:
		return ""
	}
	msg, _ := m["message"].(string)
	return msg
}

func clampPage(limit, offset, fallback int) (int, int) {
	if limit <= 0 {
		limit = fallback
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
