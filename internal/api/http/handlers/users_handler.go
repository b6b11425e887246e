package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gig-service/internal/api/dto"
	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/service"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

// UsersHandler serves profiles and the per-user read side.
type UsersHandler struct {
	users    *service.UserService
	gigs     *service.GigService
	feedback *service.FeedbackService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, gigs *service.GigService, feedback *service.FeedbackService) *UsersHandler {
	return &UsersHandler{users: users, gigs: gigs, feedback: feedback}
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user, user.ID == principal.ID())})
}

// UpdateMe handles PATCH /users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), principal.ID(), service.ProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Skills:      req.Skills,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user, true)})
}

// Reputation handles GET /users/:id/reputation.
func (h *UsersHandler) Reputation(c *fiber.Ctx) error {
	rating, err := h.feedback.Aggregate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRatingResponse(rating)})
}

// Feedback handles GET /users/:id/feedback.
func (h *UsersHandler) Feedback(c *fiber.Ctx) error {
	received, err := h.feedback.ListForUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackList(received)})
}

// Gigs handles GET /users/:id/gigs?type=posted|claimed|all.
func (h *UsersHandler) Gigs(c *fiber.Ctx) error {
	kind := service.UserGigsKind(c.Query("type", string(service.UserGigsAll)))
	switch kind {
	case service.UserGigsPosted, service.UserGigsClaimed, service.UserGigsAll:
	default:
		return apperrors.NewValidationError("type", "type must be posted, claimed or all")
	}
	gigs, err := h.gigs.ListUserGigs(c.UserContext(), c.Params("id"), kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGigList(gigs)})
}
