package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/bookshelf/bookshelf-api/docs"
	"github.com/bookshelf/bookshelf-api/internal/api/handler"
	"github.com/bookshelf/bookshelf-api/internal/api/middleware"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth   ports.AuthService
	Roles  ports.CapabilityResolver
	Books  ports.BookService
	Health []handler.HealthChecker
	Logger zerolog.Logger

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	log := d.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "bookshelf",
		Registerer: d.Registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, log)
	bookHandler := handler.NewBookHandler(d.Books)
	healthHandler := handler.NewHealthHandler(d.Health...)
	authenticate := middleware.Authenticate(d.Auth, d.Roles, log)

	// --- Auth routes ---
	e.POST("/signup", authHandler.Signup)
	e.POST("/signin", authHandler.Signin, authenticate)

	// --- Book routes ---
	books := e.Group("/books", authenticate)
	books.GET("", bookHandler.List, middleware.RequireCapability(domain.CapabilityRead, middleware.MsgUnauthorizedAccess))
	books.GET("/:id", bookHandler.Get, middleware.RequireCapability(domain.CapabilityRead, middleware.MsgUnauthorizedAccess))
	books.POST("", bookHandler.Create, middleware.RequireCapability(domain.CapabilityCreate, "User cannot create books"))
	books.PATCH("/:id", bookHandler.Update, middleware.RequireCapability(domain.CapabilityUpdate, "User cannot update books"))
	books.DELETE("/:id", bookHandler.Delete, middleware.RequireCapability(domain.CapabilityDelete, "User cannot delete books"))

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/", healthHandler.Root)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			if v.Error != nil {
				ev = ev.Str("error", v.Error.Error())
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
