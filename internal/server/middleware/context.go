package middleware

import (
	"github.com/litgraph/backend/pkg/ai"
	"github.com/litgraph/backend/pkg/logger"
	"github.com/litgraph/backend/pkg/pipeline"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const RequestIDHeader = echo.HeaderXRequestID

// App holds the process-wide dependencies shared by every handler.
type App struct {
	Pipeline *pipeline.Pipeline
	AiClient ai.GraphAIClient
	Schema   []byte
}

type AppContext struct {
	echo.Context
	App       *App
	RequestID string
}

// AppContextMiddleware wraps every request context in an AppContext and tags
// the request with an id, reusing the caller's X-Request-ID when present.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				id, err := gonanoid.New()
				if err != nil {
					logger.Warn("Failed to generate request id", "err", err)
				}
				requestID = id
			}
			c.Response().Header().Set(RequestIDHeader, requestID)

			cc := &AppContext{c, app, requestID}
			return next(cc)
		}
	}
}
