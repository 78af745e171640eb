package domain

// Provenance records whether a principal was reconciled against a stored
// user record or assembled from unverified request headers.
type Provenance string

const (
	ProvenanceStore    Provenance = "from_store"
	ProvenanceFallback Provenance = "from_header_fallback"
)

// Well-known roles. The set is open: callers outside this service may
// introduce new role strings, so membership is checked, never exhaustively
// switched on.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleViewer = "viewer"
)

// Principal is the resolved caller identity attached to a request for the
// remainder of its processing. It is built per request and never persisted.
type Principal struct {
	ID         string
	Name       string
	Email      string
	Role       string
	Provenance Provenance
}

// HasRole reports whether the principal's role is in allowed. An empty
// allowed set means any authenticated principal passes.
func (p Principal) HasRole(allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, role := range allowed {
		if p.Role == role {
			return true
		}
	}
	return false
}
