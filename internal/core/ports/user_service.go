package ports

import "context"

// CreateUserInput carries the already-validated fields of a provisioning
// request. It is consumed exactly once.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

// UserProjection is the only user representation returned to callers:
// no identifier, no credential material.
type UserProjection struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*UserProjection, error)
}
