package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/usercore/provisioning-api/internal/core/domain"
	"github.com/usercore/provisioning-api/internal/core/ports"
)

// UserService provisions new accounts: remote uniqueness check, credential
// hashing, persistence, projection. Each step runs exactly once, in order,
// with no retries; any failure is terminal for the request.
type UserService struct {
	repo       ports.UserRepository
	searcher   ports.UserSearcher
	bcryptCost int
	logger     zerolog.Logger
}

func NewUserService(repo ports.UserRepository, searcher ports.UserSearcher, bcryptCost int, logger zerolog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, searcher: searcher, bcryptCost: bcryptCost, logger: logger}
}

// Create provisions a user for the given input. The uniqueness check is
// advisory: the email index at the persistence layer is the authoritative
// backstop, and its violation surfaces as the same conflict error.
func (s *UserService) Create(ctx context.Context, input ports.CreateUserInput) (*ports.UserProjection, error) {
	hit, err := s.searcher.FindByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", input.Email).Msg("uniqueness check failed")
		return nil, err
	}
	if hit != nil {
		s.logger.Info().Str("email", input.Email).Msg("provisioning rejected: email taken")
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to persist user")
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("user provisioned")

	return &ports.UserProjection{Name: created.Name, Email: created.Email}, nil
}
