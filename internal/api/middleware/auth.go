package middleware

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookshelf/bookshelf-api/internal/api/metrics"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

const (
	// TimeoutHeader lets a client request a custom expiry window, in seconds,
	// for the token minted on successful authentication.
	TimeoutHeader = "Timeout"
	// TokenHeader carries the freshly minted token on authenticated responses.
	TokenHeader = "X-Auth-Token"

	identityKey = "identity"
	tokenKey    = "token"
)

const (
	msgBasicFailed  = "Unable to authenticate from username and password"
	msgBearerFailed = "Unable to authenticate from token"
)

// Authenticate resolves the Authorization header to an identity.
//
// A missing header, a header that is not exactly "<scheme> <data>", an
// unsupported scheme or undecodable Basic credentials all pass through with no
// identity attached; routes that need one must reject the request themselves.
// Credentials that decode but do not resolve yield a 401 handed to the error
// handler. On success the identity and a new "Bearer <token>" string are stored
// on the context.
func Authenticate(auth ports.AuthService, roles ports.CapabilityResolver, log zerolog.Logger) echo.MiddlewareFunc {
	log = log.With().Str("component", "auth_middleware").Logger()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, data, ok := splitAuthorization(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			ctx := c.Request().Context()

			var (
				user *domain.User
				err  error
			)
			switch {
			case strings.EqualFold(scheme, "Basic"):
				username, password, ok := decodeBasic(data)
				if !ok {
					return next(c)
				}
				user, err = auth.AuthenticateBasic(ctx, username, password)
				if err != nil {
					return basicFailure(err, log)
				}
				metrics.AuthAttemptsTotal.WithLabelValues("basic", "success").Inc()

			case strings.EqualFold(scheme, "Bearer"):
				user, err = auth.AuthenticateBearer(ctx, data)
				if err != nil {
					return bearerFailure(err, log)
				}
				metrics.AuthAttemptsTotal.WithLabelValues("bearer", "success").Inc()

			default:
				return next(c)
			}

			caps, err := roles.Capabilities(ctx, user.Role)
			if err != nil {
				// Fail closed: the identity is attached with no capabilities.
				ev := log.Warn()
				if errors.Is(err, domain.ErrRoleNotFound) {
					ev = log.Debug()
				}
				ev.Err(err).Str("user_id", user.ID).Str("role", user.Role).Msg("role not resolved")
				caps = nil
			}

			token, err := auth.IssueToken(user, c.Request().Header.Get(TimeoutHeader))
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			metrics.TokensIssuedTotal.Inc()

			bearer := "Bearer " + token
			c.Set(identityKey, domain.NewIdentity(user, caps))
			c.Set(tokenKey, bearer)
			c.Response().Header().Set(TokenHeader, bearer)

			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by Authenticate, or nil.
func IdentityFrom(c echo.Context) *domain.Identity {
	id, _ := c.Get(identityKey).(*domain.Identity)
	return id
}

// TokenFrom returns the "Bearer <token>" string minted by Authenticate, or "".
func TokenFrom(c echo.Context) string {
	tok, _ := c.Get(tokenKey).(string)
	return tok
}

// splitAuthorization splits a header of exactly two whitespace separated fields.
func splitAuthorization(header string) (scheme, data string, ok bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// decodeBasic decodes base64("username:password"). The password may contain colons.
func decodeBasic(data string) (username, password string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(raw), ":")
}

func basicFailure(err error, log zerolog.Logger) error {
	if errors.Is(err, domain.ErrInvalidCredentials) {
		metrics.AuthAttemptsTotal.WithLabelValues("basic", "rejected").Inc()
		return domain.Unauthorized(msgBasicFailed)
	}
	metrics.AuthAttemptsTotal.WithLabelValues("basic", "error").Inc()
	log.Error().Err(err).Msg("basic authentication failed")
	return fmt.Errorf("basic auth: %w", err)
}

func bearerFailure(err error, log zerolog.Logger) error {
	var tokenErr *domain.TokenError
	switch {
	case errors.As(err, &tokenErr):
		metrics.AuthAttemptsTotal.WithLabelValues("bearer", "rejected").Inc()
		return domain.Unauthorized(tokenErr.Category)
	case errors.Is(err, domain.ErrInvalidToken):
		metrics.AuthAttemptsTotal.WithLabelValues("bearer", "rejected").Inc()
		return domain.Unauthorized(msgBearerFailed)
	}
	metrics.AuthAttemptsTotal.WithLabelValues("bearer", "error").Inc()
	log.Error().Err(err).Msg("bearer authentication failed")
	return fmt.Errorf("bearer auth: %w", err)
}
