package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gig-service/internal/api/dto"
	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/service"
)

// FeedbackHandler serves post-completion feedback on a gig.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Submit handles POST /gigs/:id/feedback.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SubmitFeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	fb, err := h.feedback.Submit(c.UserContext(), service.FeedbackInput{
		GigID:    c.Params("id"),
		FromUser: principal.ID(),
		ToUser:   req.ToUser,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFeedbackResponse(fb)})
}

// ListForGig handles GET /gigs/:id/feedback.
func (h *FeedbackHandler) ListForGig(c *fiber.Ctx) error {
	left, err := h.feedback.ListForGig(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackList(left)})
}
