package ports

import "context"

// SearchHit is the remote search service's representation of an existing
// user. Any non-empty reply counts as a hit.
type SearchHit struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserSearcher asks the external user-search service whether an email is
// already registered. Implementations wait at most a configured bound;
// a missing reply surfaces as domain.ErrSearchTimeout and is never folded
// into the (nil, nil) "not found" outcome.
type UserSearcher interface {
	FindByEmail(ctx context.Context, email string) (*SearchHit, error)
}
