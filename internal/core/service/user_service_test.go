package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/usercore/provisioning-api/internal/core/domain"
	"github.com/usercore/provisioning-api/internal/core/ports"
)

type stubUserRepo struct {
	users   map[string]*domain.User
	creates int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.creates++
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrEmailTaken
	}
	clone := *user
	clone.ID = "user_" + user.Email
	r.users[user.Email] = &clone
	copied := clone
	return &copied, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.users[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

// stubSearcher answers every lookup with a fixed outcome.
type stubSearcher struct {
	hit   *ports.SearchHit
	err   error
	calls int
}

func (s *stubSearcher) FindByEmail(_ context.Context, _ string) (*ports.SearchHit, error) {
	s.calls++
	return s.hit, s.err
}

func TestUserService_Create_Success(t *testing.T) {
	repo := newStubUserRepo()
	searcher := &stubSearcher{} // nil hit: email not registered
	svc := NewUserService(repo, searcher, bcrypt.MinCost, zerolog.Nop())

	projection, err := svc.Create(context.Background(), ports.CreateUserInput{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if projection.Name != "Test User" || projection.Email != "test@example.com" {
		t.Fatalf("unexpected projection: %+v", projection)
	}

	stored := repo.users["test@example.com"]
	if stored == nil {
		t.Fatalf("user was not persisted")
	}
	if stored.PasswordHash == "password123" {
		t.Fatalf("plaintext password was stored")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if len(stored.Roles) != 1 || stored.Roles[0] != domain.RoleUser {
		t.Fatalf("unexpected roles: %v", stored.Roles)
	}
}

func TestUserService_Create_EmailTaken(t *testing.T) {
	repo := newStubUserRepo()
	searcher := &stubSearcher{hit: &ports.SearchHit{ID: "123", Email: "test@example.com"}}
	svc := NewUserService(repo, searcher, bcrypt.MinCost, zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateUserInput{
		Name:     "Existing User",
		Email:    "test@example.com",
		Password: "pass",
	})
	if err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err.Error() != "this email is already registered" {
		t.Fatalf("unexpected conflict message: %q", err.Error())
	}
	if repo.creates != 0 {
		t.Fatalf("persistence write happened despite conflict")
	}
}

func TestUserService_Create_EmailTaken_Repeatable(t *testing.T) {
	repo := newStubUserRepo()
	searcher := &stubSearcher{hit: &ports.SearchHit{ID: "123", Email: "test@example.com"}}
	svc := NewUserService(repo, searcher, bcrypt.MinCost, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), ports.CreateUserInput{
			Name:     "Existing User",
			Email:    "test@example.com",
			Password: "pass",
		})
		if err != domain.ErrEmailTaken {
			t.Fatalf("attempt %d: expected ErrEmailTaken, got %v", i, err)
		}
	}
	if repo.creates != 0 {
		t.Fatalf("persistence write happened despite repeated conflicts")
	}
}

func TestUserService_Create_SearchTimeout(t *testing.T) {
	repo := newStubUserRepo()
	searcher := &stubSearcher{err: domain.ErrSearchTimeout}
	svc := NewUserService(repo, searcher, bcrypt.MinCost, zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateUserInput{
		Name:     "Timeout User",
		Email:    "timeout@example.com",
		Password: "pass",
	})
	if err != domain.ErrSearchTimeout {
		t.Fatalf("expected ErrSearchTimeout, got %v", err)
	}
	if err.Error() != "the user-search service did not respond in time" {
		t.Fatalf("unexpected timeout message: %q", err.Error())
	}
	if repo.creates != 0 {
		t.Fatalf("persistence write happened despite timeout")
	}
}

func TestUserService_Create_HashingIsSalted(t *testing.T) {
	repo := newStubUserRepo()
	searcher := &stubSearcher{}
	svc := NewUserService(repo, searcher, bcrypt.MinCost, zerolog.Nop())

	if _, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "A", Email: "a@example.com", Password: "password123"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "B", Email: "b@example.com", Password: "password123"}); err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	first := repo.users["a@example.com"].PasswordHash
	second := repo.users["b@example.com"].PasswordHash
	if first == second {
		t.Fatalf("same plaintext produced identical hashes")
	}
	for _, h := range []string{first, second} {
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("password123")); err != nil {
			t.Fatalf("hash does not verify: %v", err)
		}
	}
}

func TestUserService_Create_PersistenceConflictBackstop(t *testing.T) {
	repo := newStubUserRepo()
	searcher := &stubSearcher{} // search says free, but the store already holds the email
	svc := NewUserService(repo, searcher, bcrypt.MinCost, zerolog.Nop())

	repo.users["raced@example.com"] = &domain.User{Email: "raced@example.com"}

	_, err := svc.Create(context.Background(), ports.CreateUserInput{
		Name:     "Late Writer",
		Email:    "raced@example.com",
		Password: "password123",
	})
	if err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken from the storage backstop, got %v", err)
	}
}
