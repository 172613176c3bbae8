package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usercore/provisioning-api/internal/api/metrics"
	"github.com/usercore/provisioning-api/internal/core/domain"
	"github.com/usercore/provisioning-api/internal/core/ports"
)

// UserHandler handles the provisioning endpoint.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /v1/users — provisions a new user account.
//
// @Summary      Create a user
// @Description  Checks the email against the user-search service, hashes the credential and persists the account. Admin role required.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	projection, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.ProvisionFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return err
	}

	metrics.UsersProvisionedTotal.Inc()
	return c.JSON(http.StatusCreated, userResponse{Name: projection.Name, Email: projection.Email})
}

// failureReason buckets provisioning errors for the failure counter.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, domain.ErrSearchTimeout):
		return "search_timeout"
	default:
		return "persistence"
	}
}
