package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/ports"
	"github.com/campuspay/backoffice/internal/platform/metrics"
)

// IdentityService resolves request credentials into a Principal and gates
// operations by role. Resolution is fail-open by default: when the user
// store is unreachable the caller-supplied identity is trusted so that
// already-trusted internal callers keep working through store hiccups.
// Strict mode turns a store failure into an authentication failure instead.
type IdentityService struct {
	users   ports.UserRepository
	metrics *metrics.Metrics
	strict  bool
}

func NewIdentityService(users ports.UserRepository, m *metrics.Metrics, strict bool) *IdentityService {
	return &IdentityService{users: users, metrics: m, strict: strict}
}

// Resolve reconciles a caller-supplied identifier and role claim against the
// user store. A stored record always wins over the claimed role. A missing
// record, or a store error in non-strict mode, falls back to the claim with
// fallback provenance.
func (s *IdentityService) Resolve(ctx context.Context, userID, claimedRole, defaultRole string) (domain.Principal, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, userID)
	switch {
	case err == nil:
		return domain.Principal{
			ID:         user.ID,
			Name:       user.Name,
			Email:      user.Email,
			Role:       user.Role,
			Provenance: domain.ProvenanceStore,
		}, nil
	case errors.Is(err, domain.ErrNotFound):
		// fall through to the header claim
	default:
		if s.strict {
			log.Printf("identity: user store error, strict mode rejects %q: %v", userID, err)
			return domain.Principal{}, domain.ErrUnauthenticated
		}
		log.Printf("identity: user store error, falling back to header identity for %q: %v", userID, err)
	}

	role := strings.TrimSpace(claimedRole)
	if role == "" {
		role = defaultRole
	}

	principal := domain.Principal{
		ID:         userID,
		Role:       role,
		Provenance: domain.ProvenanceFallback,
	}
	if principal.ID == "" && principal.Role == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	s.metrics.AuthFallbackTotal.Inc()
	return principal, nil
}

// Authorize allows a resolved principal whose role is in allowed. An empty
// allowed set only requires that a principal was resolved at all.
func (s *IdentityService) Authorize(principal *domain.Principal, allowed ...string) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if !principal.HasRole(allowed) {
		return domain.ErrForbidden
	}
	return nil
}
