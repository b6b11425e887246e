package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/observability"
)

// NewApp builds a fiber app with the error envelope and global middlewares
// installed. Routes are added with RegisterRoutes.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, metrics),
	})
	RegisterMiddlewares(app, logger, metrics, timeout)
	return app
}
