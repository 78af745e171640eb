package domain

// RequestMeta carries per-request audit context from the transport layer
// into the resource services: who acts, from where, and whether the caller
// opted out of activity logging.
type RequestMeta struct {
	UserID    string
	IPAddress string
	SkipAudit bool
}
