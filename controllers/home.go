package controllers

import (
	"alternanceetmoi.fr/reports/helpers"
	"github.com/gofiber/fiber/v2"
)

func Home(c *fiber.Ctx) error {
	return helpers.Render(c, fiber.StatusOK, "pages/home", helpers.NewPage(c, "NavHome", nil))
}

// LegacyNewReport keeps old bookmarks of the report form working.
func LegacyNewReport(c *fiber.Ctx) error {
	return c.Redirect("/reports/new", fiber.StatusMovedPermanently)
}
