package server

import (
	"github.com/litgraph/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	e.POST("/analyze", routes.AnalyzeHandler)

	apiRoutes := e.Group("/api")
	apiRoutes.GET("/graph/schema", routes.GraphSchemaHandler)
	apiRoutes.GET("/metrics", routes.ModelMetricsHandler)
}
