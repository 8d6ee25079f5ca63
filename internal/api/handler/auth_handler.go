package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookshelf/bookshelf-api/internal/api/metrics"
	"github.com/bookshelf/bookshelf-api/internal/api/middleware"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Role     string `json:"role,omitempty" validate:"omitempty,role"`
}

type authResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Signup creates a new user account and returns a bearer token for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "User registration details"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		h.log.Debug().Err(err).Msg("signup rejected")
		return writeFailure(err)
	}

	user, token, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		return writeFailure(err)
	}
	metrics.TokensIssuedTotal.Inc()

	return c.JSON(http.StatusOK, authResponse{Token: "Bearer " + token, Role: user.Role})
}

// Signin exchanges the credentials in the Authorization header for a fresh token.
//
// @Summary      Sign in
// @Tags         auth
// @Produce      json
// @Security     BasicAuth
// @Security     BearerAuth
// @Param        Timeout  header    int  false  "Token lifetime in seconds"
// @Success      200      {object}  authResponse
// @Failure      401      {object}  map[string]string
// @Router       /signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return domain.Unauthorized(middleware.MsgUnauthorizedAccess)
	}

	return c.JSON(http.StatusOK, authResponse{Token: middleware.TokenFrom(c), Role: identity.Role()})
}
