// handlers_health.go - Health, schema and sample data handlers
package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/exporter"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleSchema returns the columns an upload must contain
func (h *HealthHandlerImpl) HandleSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requiredColumns": claims.RequiredColumns(),
	})
}

// HandleSample serves the two-row sample file
func (h *HealthHandlerImpl) HandleSample(c echo.Context) error {
	var buf bytes.Buffer
	if err := exporter.WriteCSV(&buf, claims.SampleDataset()); err != nil {
		return NewInternalError("failed to encode sample", err)
	}
	setAttachment(c, claims.SampleFileName)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func setAttachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}
