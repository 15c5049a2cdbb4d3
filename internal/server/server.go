package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/litgraph/backend/internal/server/middleware"
	"github.com/litgraph/backend/internal/util"
	"github.com/litgraph/backend/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	defaultAITimeout      = 120 * time.Second
	defaultArchiveTimeout = 30 * time.Second
	defaultCacheTTL       = 24 * time.Hour
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewEcho builds the HTTP server for app. A non-empty frontendDir is served as
// a single-page app: unknown GET paths fall back to its index.html.
func NewEcho(app *mid.App, frontendDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", c.Response().Header().Get(mid.RequestIDHeader),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	if frontendDir != "" {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  frontendDir,
			Index: "index.html",
			HTML5: true,
		}))
	}

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient, err := NewAIClient()
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	resultCache, closeCache, err := NewCache(ctx)
	if err != nil {
		logger.Fatal("Failed to create result cache", "err", err)
	}
	defer closeCache()

	app, err := NewApp(aiClient, resultCache)
	if err != nil {
		logger.Fatal("Failed to create app", "err", err)
	}

	e := NewEcho(app, util.GetEnv("FRONTEND_DIR"))

	go func() {
		port := util.GetEnvString("PORT", defaultPort)
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
