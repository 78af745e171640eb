package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	timeFormat      = "2006-01-02T15:04:05.999999999Z07:00"
	maxJSONBodySize = 1 << 20
)

type Handler struct {
	identity *usecase.IdentityService
	activity *usecase.ActivityService
	cards    *usecase.CardService
	students *usecase.StudentService
	orders   *usecase.OrderService
}

func NewHandler(
	identity *usecase.IdentityService,
	activity *usecase.ActivityService,
	cards *usecase.CardService,
	students *usecase.StudentService,
	orders *usecase.OrderService,
) *Handler {
	return &Handler{
		identity: identity,
		activity: activity,
		cards:    cards,
		students: students,
		orders:   orders,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v chi.Router) {
		// Resource API: mobile backends and the dashboard pass identity via
		// headers; unresolved callers default to the staff role.
		v.Group(func(pr chi.Router) {
			pr.Use(h.withIdentity(domain.RoleStaff))

			pr.Get("/students", h.listStudents)
			pr.Get("/students/{id}", h.getStudent)
			pr.Get("/cards", h.listCards)
			pr.Get("/cards/{id}", h.getCard)
			pr.Get("/orders", h.listOrders)
			pr.Get("/orders/{id}", h.getOrder)

			pr.Group(func(wr chi.Router) {
				wr.Use(h.requireRole(domain.RoleAdmin, domain.RoleStaff))
				wr.Post("/students", h.createStudent)
				wr.Put("/students/{id}", h.updateStudent)
				wr.Post("/cards", h.createCard)
				wr.Put("/cards/{id}", h.updateCard)
				wr.Post("/cards/{id}/topup", h.topUpCard)
				wr.Post("/orders", h.createOrder)
				wr.Put("/orders/{id}/status", h.updateOrderStatus)
			})

			pr.Group(func(dr chi.Router) {
				dr.Use(h.requireRole(domain.RoleAdmin))
				dr.Delete("/students/{id}", h.deleteStudent)
			})
		})

		// Administrative audit views default unresolved callers to viewer,
		// then require the admin role outright.
		v.Group(func(ar chi.Router) {
			ar.Use(h.withIdentity(domain.RoleViewer))
			ar.Use(h.requireRole(domain.RoleAdmin))
			ar.Get("/activity/users/{id}", h.userActivity)
			ar.Get("/activity/entities/{type}/{id}", h.entityActivity)
			ar.Get("/activity/cards", h.cardActivity)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	var data json.RawMessage
	if err := decoder.Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	return data, true
}

func parsePage(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	for _, p := range []struct {
		name   string
		target *int
	}{
		{"limit", &limit},
		{"offset", &offset},
	} {
		if raw := r.URL.Query().Get(p.name); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, p.name+" must be integer")
				return 0, 0, false
			}
			*p.target = parsed
		}
	}
	return limit, offset, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var violation *domain.ErrSchemaViolation
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidField), errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &violation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "schema validation failed",
			"details": violation.Errors,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}
