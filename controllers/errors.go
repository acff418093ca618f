package controllers

import (
	"errors"

	"alternanceetmoi.fr/reports/helpers"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

var defaultMessages = map[int]string{
	fiber.StatusNotFound:        "ErrorNotFound",
	fiber.StatusForbidden:       "ErrorForbidden",
	fiber.StatusTooManyRequests: "ErrorTooManyRequests",
}

// ErrorHandler renders the error page. Handlers return fiber errors whose
// message is a translation id.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "ErrorUnexpected"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message

		if message == utils.StatusMessage(code) {
			message = "ErrorUnexpected"
			if m, ok := defaultMessages[code]; ok {
				message = m
			}
		}
	}

	if code >= fiber.StatusInternalServerError {
		sentry.CaptureException(err)
		zap.S().Errorf("Request to %s %s failed: %v", c.Method(), c.Path(), err)
	}

	p := helpers.NewPage(c, "ErrorTitle", fiber.Map{"Status": code, "Message": message})

	if err := helpers.Render(c, code, "pages/error", p); err != nil {
		zap.S().Errorf("Could not render error page: %v", err)
		return c.Status(code).SendString(helpers.T(c, message, nil))
	}

	return nil
}

func NotFound(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, "ErrorNotFound")
}
