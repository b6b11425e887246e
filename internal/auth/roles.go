package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gig-service/internal/domain"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

// RequireRole ensures the authenticated caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role()]; !exists {
			return apperrors.NewPermissionDenied("insufficient role")
		}
		return c.Next()
	}
}

// MustPrincipal returns the authenticated caller or an Unauthorized error.
func MustPrincipal(c *fiber.Ctx) (*Principal, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}
