package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/api/dto"
	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/feed"
	"github.com/spec-kit/gig-service/internal/service"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

const streamHeartbeat = 15 * time.Second

// GigsHandler serves the gig lifecycle endpoints and the live feed.
type GigsHandler struct {
	gigs   *service.GigService
	feed   *feed.Registry
	logger *zap.Logger
}

// NewGigsHandler constructs handler.
func NewGigsHandler(gigs *service.GigService, registry *feed.Registry, logger *zap.Logger) *GigsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GigsHandler{gigs: gigs, feed: registry, logger: logger}
}

// Create handles POST /gigs.
func (h *GigsHandler) Create(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateGigRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	targetDate, err := parseOptionalTime("targetDate", req.TargetDate)
	if err != nil {
		return err
	}

	gig, err := h.gigs.CreateGig(c.UserContext(), principal.ID(), service.GigInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Location:      req.Location,
		PaymentAmount: req.PaymentAmount,
		PaymentKind:   req.PaymentKind,
		Duration:      req.Duration,
		DurationUnit:  req.DurationUnit,
		TargetDate:    targetDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewGigResponse(gig)})
}

// List handles GET /gigs.
func (h *GigsHandler) List(c *fiber.Ctx) error {
	filter, err := parseGigFilter(c)
	if err != nil {
		return err
	}
	gigs, err := h.gigs.QueryGigs(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGigList(gigs)})
}

// Get handles GET /gigs/:id.
func (h *GigsHandler) Get(c *fiber.Ctx) error {
	gig, err := h.gigs.GetGig(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGigResponse(gig)})
}

// Update handles PATCH /gigs/:id.
func (h *GigsHandler) Update(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateGigRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	targetDate, err := parseOptionalTime("targetDate", req.TargetDate)
	if err != nil {
		return err
	}

	gig, err := h.gigs.UpdateGig(c.UserContext(), c.Params("id"), principal.ID(), service.GigUpdateInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		Location:        req.Location,
		PaymentAmount:   req.PaymentAmount,
		PaymentKind:     req.PaymentKind,
		Duration:        req.Duration,
		DurationUnit:    req.DurationUnit,
		TargetDate:      targetDate,
		ClearTargetDate: req.ClearTargetDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGigResponse(gig)})
}

// Claim handles POST /gigs/:id/claim.
func (h *GigsHandler) Claim(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	gig, err := h.gigs.ClaimGig(c.UserContext(), c.Params("id"), principal.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGigResponse(gig)})
}

// Complete handles POST /gigs/:id/complete.
func (h *GigsHandler) Complete(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	gig, err := h.gigs.CompleteGig(c.UserContext(), c.Params("id"), principal.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGigResponse(gig)})
}

// History handles GET /gigs/:id/history.
func (h *GigsHandler) History(c *fiber.Ctx) error {
	entries, err := h.gigs.GigHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGigHistoryList(entries)})
}

// Stream handles GET /gigs/stream. It emits a "gigs" server-sent event with
// the full matching set on subscribe and after every change, plus comment
// heartbeats to keep proxies from closing the connection.
func (h *GigsHandler) Stream(c *fiber.Ctx) error {
	filter, err := parseGigFilter(c)
	if err != nil {
		return err
	}

	updates := make(chan []domain.Gig, 1)
	done := make(chan struct{})
	sub, err := h.feed.Subscribe(filter, func(snapshot []domain.Gig) {
		for {
			select {
			case <-done:
				return
			case updates <- snapshot:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		if errors.Is(err, feed.ErrClosed) {
			return apperrors.NewDomainError(apperrors.CodeStore, "feed is shutting down", http.StatusServiceUnavailable, nil)
		}
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	closed := h.feed.Done()
	logger := h.logger.With(zap.String("filter", filter.Signature()))
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			close(done)
			sub.Unsubscribe()
		}()

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-closed:
				return
			case snapshot := <-updates:
				payload, err := json.Marshal(dto.NewGigList(snapshot))
				if err != nil {
					logger.Error("encode feed snapshot", zap.Error(err))
					return
				}
				if _, err := fmt.Fprintf(w, "event: gigs\ndata: %s\n\n", payload); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				logger.Debug("feed client disconnected", zap.Error(err))
				return
			}
		}
	}))
	return nil
}
