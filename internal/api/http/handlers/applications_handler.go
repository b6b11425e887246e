package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gig-service/internal/api/dto"
	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/service"
)

// ApplicationsHandler serves the application registry.
type ApplicationsHandler struct {
	applications *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applications *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{applications: applications}
}

// Apply handles POST /gigs/:id/apply. The body is optional.
func (h *ApplicationsHandler) Apply(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ApplyRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	app, err := h.applications.Apply(c.UserContext(), c.Params("id"), principal.ID(), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// ListForGig handles GET /gigs/:id/applications.
func (h *ApplicationsHandler) ListForGig(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	apps, err := h.applications.ListForGig(c.UserContext(), c.Params("id"), principal.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationList(apps)})
}

// Mine handles GET /applications/mine.
func (h *ApplicationsHandler) Mine(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	apps, err := h.applications.ListByUser(c.UserContext(), principal.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationList(apps)})
}

// Review handles POST /applications/:id/review.
func (h *ApplicationsHandler) Review(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReviewApplicationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.applications.Review(c.UserContext(), c.Params("id"), principal.ID(), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}
