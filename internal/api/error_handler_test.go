package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usercore/provisioning-api/internal/api/handler"
	"github.com/usercore/provisioning-api/internal/api/middleware"
	"github.com/usercore/provisioning-api/internal/core/domain"
	"github.com/usercore/provisioning-api/internal/core/ports"
)

type stubUserService struct {
	projection *ports.UserProjection
	err        error
	calls      int
}

func (s *stubUserService) Create(_ context.Context, _ ports.CreateUserInput) (*ports.UserProjection, error) {
	s.calls++
	return s.projection, s.err
}

// newTestApp assembles the real middleware chain, validator and error
// handler around a stubbed provisioning service.
func newTestApp(svc ports.UserService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())

	h := handler.NewUserHandler(svc)
	e.POST("/v1/users", h.Create,
		middleware.Auth("secret"),
		middleware.RequireRoles(domain.RoleAdmin),
	)
	return e
}

func adminToken(t *testing.T, roles ...string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "admin_1",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doCreate(e *echo.Echo, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"name":"Test User","email":"test@example.com","password":"password123"}`

func TestCreateUser_NoToken_ServiceNeverInvoked(t *testing.T) {
	svc := &stubUserService{}
	e := newTestApp(svc)

	rec := doCreate(e, "", validBody)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"token not provided"}` {
		t.Fatalf("unexpected body: %s", got)
	}
	if svc.calls != 0 {
		t.Fatalf("service invoked despite missing credential")
	}
}

func TestCreateUser_InsufficientRole(t *testing.T) {
	svc := &stubUserService{}
	e := newTestApp(svc)

	rec := doCreate(e, adminToken(t, "user"), validBody)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"insufficient role"}` {
		t.Fatalf("unexpected body: %s", got)
	}
	if svc.calls != 0 {
		t.Fatalf("service invoked despite insufficient role")
	}
}

func TestCreateUser_AdminAdmitted(t *testing.T) {
	svc := &stubUserService{projection: &ports.UserProjection{Name: "Test User", Email: "test@example.com"}}
	e := newTestApp(svc)

	rec := doCreate(e, adminToken(t, "admin", "user"), validBody)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"name":"Test User","email":"test@example.com"}` {
		t.Fatalf("unexpected body: %s", got)
	}
	if svc.calls != 1 {
		t.Fatalf("expected exactly one service call, got %d", svc.calls)
	}
}

func TestCreateUser_Conflict(t *testing.T) {
	svc := &stubUserService{err: domain.ErrEmailTaken}
	e := newTestApp(svc)

	rec := doCreate(e, adminToken(t, "admin"), validBody)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"this email is already registered"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestCreateUser_SearchTimeout(t *testing.T) {
	svc := &stubUserService{err: domain.ErrSearchTimeout}
	e := newTestApp(svc)

	rec := doCreate(e, adminToken(t, "admin"), validBody)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"the user-search service did not respond in time"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestCreateUser_PersistenceFailureIsOpaque(t *testing.T) {
	svc := &stubUserService{err: errors.New("connection reset by mongod")}
	e := newTestApp(svc)

	rec := doCreate(e, adminToken(t, "admin"), validBody)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "mongod") {
		t.Fatalf("internal cause leaked to caller: %s", body)
	}
	if got := strings.TrimSpace(body); got != `{"error":"internal server error"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}
