package controllers

import (
	"alternanceetmoi.fr/reports/helpers"
	"alternanceetmoi.fr/reports/views"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func PurgeCache(c *fiber.Ctx) error {
	n, err := helpers.PurgeCache(c.UserContext())
	if err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not purge cache: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "ErrorUnexpected")
	}

	zap.S().Infof("Purged %d cached keys.", n)
	helpers.SetFlash(c, views.FlashSuccess, helpers.T(c, "CachePurged", nil))

	return c.Redirect("/", fiber.StatusSeeOther)
}

func HealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(&fiber.Map{"healthy": true})
}
