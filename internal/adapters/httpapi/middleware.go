package httpapi

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/campuspay/backoffice/internal/core/domain"
)

// Identity headers. The dedicated user headers are the primary channel;
// a bearer token carrying a raw identifier is the fallback used by older
// mobile backends.
const (
	headerUserID    = "X-User-Id"
	headerUserRole  = "X-User-Role"
	headerSkipAudit = "X-Skip-Audit"
)

type ctxKey string

const (
	principalCtxKey ctxKey = "principal"
	metaCtxKey      ctxKey = "request_meta"
)

// withIdentity resolves the caller into a Principal or rejects the request
// with 401. defaultRole is applied when the store has no record and the
// caller claimed no role.
func (h *Handler) withIdentity(defaultRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(headerUserID))
			if userID == "" {
				auth := strings.TrimSpace(r.Header.Get("Authorization"))
				if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					userID = strings.TrimSpace(auth[7:])
				}
			}

			principal, err := h.identity.Resolve(r.Context(), userID, r.Header.Get(headerUserRole), defaultRole)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			skip, _ := strconv.ParseBool(r.Header.Get(headerSkipAudit))
			meta := domain.RequestMeta{
				UserID:    principal.ID,
				IPAddress: clientIP(r),
				SkipAudit: skip,
			}

			ctx := context.WithValue(r.Context(), principalCtxKey, principal)
			ctx = context.WithValue(ctx, metaCtxKey, meta)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireRole gates a route on the resolved principal's role.
func (h *Handler) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := principalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if err := h.identity.Authorize(&principal, roles...); err != nil {
				handleDomainError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalCtxKey).(domain.Principal)
	return principal, ok
}

func metaFromContext(ctx context.Context) domain.RequestMeta {
	meta, _ := ctx.Value(metaCtxKey).(domain.RequestMeta)
	return meta
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
