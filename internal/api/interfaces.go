// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/claims-dashboard/backend/internal/analytics"
	"github.com/claims-dashboard/backend/internal/models"
)

// HealthHandler serves service-level endpoints that need no session
type HealthHandler interface {
	HandleHealth(c echo.Context) error
	HandleSchema(c echo.Context) error
	HandleSample(c echo.Context) error
}

// SessionHandler handles dataset uploads and session lifecycle
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleReplaceDataset(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleKeepAlive(c echo.Context) error
}

// QueryHandler answers filtered dashboard queries and exports
type QueryHandler interface {
	HandleOptions(c echo.Context) error
	HandleSummary(c echo.Context) error
	HandleDenials(c echo.Context) error
	HandleRows(c echo.Context) error
	HandleExport(c echo.Context) error
}

// SessionStore defines the session operations handlers depend on.
// *session.Manager implements it.
type SessionStore interface {
	Load(ctx context.Context, sessionID, name string, data []byte) (*models.SessionInfo, error)
	Info(id string) (*models.SessionInfo, error)
	// Acquire pins the session's view until release is called.
	Acquire(id string) (view analytics.View, release func(), err error)
	Touch(id string) error
	Delete(id string) error
}
