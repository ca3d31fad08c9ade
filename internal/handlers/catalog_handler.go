package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
)

type catalogReader interface {
	Steps() *onboarding.Catalog
	Packages() []models.Package
}

type CatalogHandler struct {
	catalog catalogReader
}

func NewCatalogHandler(catalog catalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListPackages(c *fiber.Ctx) error {
	packages := h.catalog.Packages()

	if code := strings.TrimSpace(c.Query("code")); code != "" {
		for _, pkg := range packages {
			if strings.EqualFold(pkg.Code, code) {
				return c.JSON(fiber.Map{"packages": []models.Package{pkg}})
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}

	return c.JSON(fiber.Map{"packages": packages})
}

func (h *CatalogHandler) ListSteps(c *fiber.Ctx) error {
	catalog := h.catalog.Steps()
	return c.JSON(fiber.Map{
		"steps":        catalog.Steps(),
		"booking_step": catalog.BookingStep(),
	})
}
