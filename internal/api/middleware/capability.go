package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookshelf-api/internal/api/metrics"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// MsgUnauthorizedAccess is reported when a protected route is reached with no identity.
const MsgUnauthorizedAccess = "Unauthorized access"

// RequireCapability lets the request through only when the identity attached
// by Authenticate holds capability. A missing identity is rejected with
// MsgUnauthorizedAccess, an identity lacking the capability with denied.
func RequireCapability(capability, denied string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				metrics.CapabilityChecksTotal.WithLabelValues(capability, "anonymous").Inc()
				return domain.Forbidden(MsgUnauthorizedAccess)
			}
			if !identity.Can(capability) {
				metrics.CapabilityChecksTotal.WithLabelValues(capability, "denied").Inc()
				return domain.Forbidden(denied)
			}
			metrics.CapabilityChecksTotal.WithLabelValues(capability, "allowed").Inc()
			return next(c)
		}
	}
}
