package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/gig-service/internal/api/http/handlers"
	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Gigs           *handlers.GigsHandler
	Applications   *handlers.ApplicationsHandler
	Feedback       *handlers.FeedbackHandler
	Categories     *handlers.CategoriesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	MetricsPath    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		app.Get(cfg.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireRole()}
	app.Get("/categories", append(authenticated, cfg.Categories.List)...)

	users := app.Group("/users", authenticated...)
	users.Patch("/me", cfg.Users.UpdateMe)
	users.Get("/:id", cfg.Users.Get)
	users.Get("/:id/reputation", cfg.Users.Reputation)
	users.Get("/:id/feedback", cfg.Users.Feedback)
	users.Get("/:id/gigs", cfg.Users.Gigs)

	gigs := app.Group("/gigs", authenticated...)
	gigs.Post("/", auth.RequireRole(domain.RolePoster), cfg.Gigs.Create)
	gigs.Get("/", cfg.Gigs.List)
	gigs.Get("/stream", cfg.Gigs.Stream)
	gigs.Get("/:id", cfg.Gigs.Get)
	gigs.Patch("/:id", cfg.Gigs.Update)
	gigs.Post("/:id/apply", cfg.Applications.Apply)
	gigs.Post("/:id/claim", cfg.Gigs.Claim)
	gigs.Post("/:id/complete", cfg.Gigs.Complete)
	gigs.Get("/:id/applications", cfg.Applications.ListForGig)
	gigs.Get("/:id/history", cfg.Gigs.History)
	gigs.Get("/:id/feedback", cfg.Feedback.ListForGig)
	gigs.Post("/:id/feedback", cfg.Feedback.Submit)

	applications := app.Group("/applications", authenticated...)
	applications.Get("/mine", cfg.Applications.Mine)
	applications.Post("/:id/review", cfg.Applications.Review)
}
