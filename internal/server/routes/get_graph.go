package routes

import (
	"net/http"

	"github.com/litgraph/backend/internal/server/middleware"
	"github.com/litgraph/backend/pkg/ai"

	"github.com/labstack/echo/v4"
)

// GraphSchemaHandler returns the JSON schema of the analysis result.
func GraphSchemaHandler(c echo.Context) error {
	schema := c.(*middleware.AppContext).App.Schema
	if len(schema) == 0 {
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Error: "Schema unavailable",
		})
	}
	return c.JSONBlob(http.StatusOK, schema)
}

// ModelMetricsHandler reports the request counters of the model client.
func ModelMetricsHandler(c echo.Context) error {
	client := c.(*middleware.AppContext).App.AiClient
	if client == nil {
		return c.JSON(http.StatusOK, ai.ModelMetrics{})
	}
	return c.JSON(http.StatusOK, client.GetMetrics())
}
