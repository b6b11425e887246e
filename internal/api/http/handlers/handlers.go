package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gig-service/internal/api/dto"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/repository"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("body", "invalid JSON payload")
	}
	return nil
}

func parseGigFilter(c *fiber.Ctx) (repository.GigFilter, error) {
	filter := repository.GigFilter{}
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseGigStatus(raw)
		if !ok {
			return filter, apperrors.NewValidationError("status", "status must be open, claimed or completed")
		}
		filter.Status = &status
	}
	filter.Category = optionalQuery(c, "category")
	filter.Location = optionalQuery(c, "location")
	filter.PosterID = optionalQuery(c, "posterId")
	filter.ClaimedBy = optionalQuery(c, "claimedBy")
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, apperrors.NewValidationError("limit", "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	return &value
}

func parseOptionalTime(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := dto.ParseTime(*raw)
	if err != nil {
		return nil, apperrors.NewValidationError(field, "must be an ISO-8601 timestamp")
	}
	return &t, nil
}
