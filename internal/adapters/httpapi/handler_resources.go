package httpapi

import (
	"net/http"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/go-chi/chi/v5"
)

type studentResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	StudentNumber string `json:"student_number"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type cardResponse struct {
	ID         string `json:"id"`
	CardNumber string `json:"card_number"`
	StudentID  string `json:"student_id"`
	Balance    int64  `json:"balance"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type orderResponse struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Total     int64  `json:"total"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (h *Handler) createStudent(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	student, err := h.students.Create(r.Context(), metaFromContext(r.Context()), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentResponse(student))
}

func (h *Handler) getStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(student))
}

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	students, err := h.students.List(r.Context(), limit, offset)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	result := make([]studentResponse, 0, len(students))
	for _, student := range students {
		result = append(result, toStudentResponse(student))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) updateStudent(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	student, err := h.students.Update(r.Context(), metaFromContext(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(student))
}

func (h *Handler) deleteStudent(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.students.Delete(r.Context(), metaFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) createCard(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	card, err := h.cards.Create(r.Context(), metaFromContext(r.Context()), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(card))
}

func (h *Handler) getCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.Get(r.Context(), metaFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (h *Handler) listCards(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	cards, err := h.cards.List(r.Context(), limit, offset)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	result := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		result = append(result, toCardResponse(card))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) updateCard(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	card, err := h.cards.Update(r.Context(), metaFromContext(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (h *Handler) topUpCard(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	card, err := h.cards.TopUp(r.Context(), metaFromContext(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Create(r.Context(), metaFromContext(r.Context()), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.List(r.Context(), limit, offset)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	result := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	order, err := h.orders.UpdateStatus(r.Context(), metaFromContext(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func toStudentResponse(student domain.Student) studentResponse {
	return studentResponse{
		ID:            student.ID,
		Name:          student.Name,
		Email:         student.Email,
		StudentNumber: student.StudentNumber,
		CreatedAt:     student.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     student.UpdatedAt.UTC().Format(timeFormat),
	}
}

func toCardResponse(card domain.Card) cardResponse {
	return cardResponse{
		ID:         card.ID,
		CardNumber: card.CardNumber,
		StudentID:  card.StudentID,
		Balance:    card.Balance,
		Active:     card.Active,
		CreatedAt:  card.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:  card.UpdatedAt.UTC().Format(timeFormat),
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	return orderResponse{
		ID:        order.ID,
		StudentID: order.StudentID,
		Total:     order.Total,
		Status:    order.Status,
		CreatedAt: order.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: order.UpdatedAt.UTC().Format(timeFormat),
	}
}
