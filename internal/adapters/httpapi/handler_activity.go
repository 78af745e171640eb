package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/usecase"
	"github.com/go-chi/chi/v5"
)

type activityResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	IPAddress  string          `json:"ip_address,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type entityActivityResponse struct {
	activityResponse
	UserName string `json:"user_name,omitempty"`
}

type cardActivityResponse struct {
	activityResponse
	UserName   string `json:"user_name,omitempty"`
	UserRole   string `json:"user_role,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
}

func (h *Handler) userActivity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}

	entries, err := h.activity.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]activityResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toActivityResponse(entry))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) entityActivity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "type")
	entityID := chi.URLParam(r, "id")
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}

	entries, err := h.activity.ListByEntity(r.Context(), entityType, entityID, limit, offset)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]entityActivityResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entityActivityResponse{
			activityResponse: toActivityResponse(entry.ActivityEntry),
			UserName:         entry.UserName,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) cardActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}

	query := usecase.CardActivityQuery{
		UserID:    r.URL.Query().Get("user_id"),
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Action:    r.URL.Query().Get("action"),
		Limit:     limit,
		Offset:    offset,
	}

	entries, err := h.activity.ListCardActivity(r.Context(), query)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]cardActivityResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, cardActivityResponse{
			activityResponse: toActivityResponse(entry.ActivityEntry),
			UserName:         entry.UserName,
			UserRole:         entry.UserRole,
			CardNumber:       entry.CardNumber,
			HolderName:       entry.HolderName,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func toActivityResponse(entry domain.ActivityEntry) activityResponse {
	return activityResponse{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		IPAddress:  entry.IPAddress,
		CreatedAt:  entry.CreatedAt.UTC().Format(timeFormat),
	}
}
