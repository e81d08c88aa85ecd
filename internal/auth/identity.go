package auth

import "time"

// Identity is the request-scoped result of a successful bearer check. It is
// attached to the request context by the auth middleware and discarded with
// the request.
type Identity struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
