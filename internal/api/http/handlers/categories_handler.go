package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gig-service/internal/taxonomy"
)

// CategoriesHandler serves the gig taxonomy.
type CategoriesHandler struct {
	taxonomy *taxonomy.Taxonomy
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(tax *taxonomy.Taxonomy) *CategoriesHandler {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &CategoriesHandler{taxonomy: tax}
}

// List handles GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.taxonomy.Categories()})
}
