package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var ErrEmailTaken = errors.New("this email is already registered")
var ErrSearchTimeout = errors.New("the user-search service did not respond in time")
var ErrUserNotFound = errors.New("user not found")

// User is the persisted account record. PasswordHash never leaves the
// service boundary; callers only ever receive a projection.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Claims is the verified payload of a bearer token, decoded once per request
// by the Auth middleware. A token without a roles claim yields an empty set.
type Claims struct {
	Subject   string
	Roles     []string
	ExpiresAt time.Time
}

// HasAnyRole reports whether the claims' role set intersects required.
// An empty requirement admits any authenticated caller.
func (c Claims) HasAnyRole(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		for _, have := range c.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
