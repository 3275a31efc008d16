// routes.go - Route registration helpers
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/claims-dashboard/backend/internal/metrics"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions SessionStore
	Metrics  *metrics.Collectors
	Version  string
	Export   ExportSettings

	// UploadRate and UploadBurst bound uploads per client. Zero disables
	// the limit.
	UploadRate  float64
	UploadBurst int
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Session SessionHandler
	Query   QueryHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		Session: NewSessionHandler(deps.Sessions),
		Query:   NewQueryHandler(deps.Sessions, deps.Metrics, deps.Export),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, deps *Dependencies) {
	handlers := NewHandlers(deps)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/schema", handlers.Health.HandleSchema)
	apiGroup.GET("/sample", handlers.Health.HandleSample)

	var uploadLimit []echo.MiddlewareFunc
	if deps.UploadRate > 0 {
		uploadLimit = append(uploadLimit, uploadRateLimiter(deps.UploadRate, deps.UploadBurst))
	}

	sessions := apiGroup.Group("/sessions")
	sessions.POST("", handlers.Session.HandleCreateSession, uploadLimit...)
	sessions.PUT("/:id/dataset", handlers.Session.HandleReplaceDataset, uploadLimit...)
	sessions.GET("/:id", handlers.Session.HandleGetSession)
	sessions.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessions.POST("/:id/keepalive", handlers.Session.HandleKeepAlive)

	sessions.GET("/:id/options", handlers.Query.HandleOptions)
	sessions.GET("/:id/summary", handlers.Query.HandleSummary)
	sessions.GET("/:id/denials", handlers.Query.HandleDenials)
	sessions.GET("/:id/rows", handlers.Query.HandleRows)
	sessions.GET("/:id/export", handlers.Query.HandleExport)

	e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
}

func uploadRateLimiter(r float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(r),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiter(store)
}

// SetupMiddleware installs the error handler and request validator
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewRequestValidator()
}
