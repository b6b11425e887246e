package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/api/dto"
	"github.com/spec-kit/gig-service/internal/observability"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares. The request logger is
// outermost so it observes the status written by the error handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewDomainError(apperrors.CodeInternal, "internal server error", fiber.StatusInternalServerError, nil)
			}
			if err != nil {
				err = renderError(c, logger, metrics, err)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler is installed as fiber's fallback handler for errors raised
// outside the middleware chain, such as unmatched routes.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return renderError(c, logger, metrics, err)
	}
}

func renderError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	domainErr := fiberError(err)
	if domainErr == nil {
		domainErr = apperrors.ToDomainError(err)
	}
	metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
	}
	return c.Status(domainErr.HTTPStatus).JSON(dto.ErrorBody{Error: dto.ErrorDetail{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Field:   domainErr.Field,
		Details: domainErr.Details,
	}})
}

// fiberError maps framework errors (404 route, 405, oversized body) onto the
// envelope.
func fiberError(err error) *apperrors.DomainError {
	fe, ok := err.(*fiber.Error)
	if !ok {
		return nil
	}
	code := apperrors.CodeValidation
	if fe.Code == fiber.StatusNotFound {
		code = apperrors.CodeNotFound
	}
	return apperrors.NewDomainError(code, fe.Message, fe.Code, map[string]any{"status": fmt.Sprint(fe.Code)})
}
