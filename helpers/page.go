package helpers

import (
	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/views"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

const layout string = "layout"

// NewPage collects what every template needs for the current request.
func NewPage(c *fiber.Ctx, titleID string, data fiber.Map) views.Page {
	if data == nil {
		data = fiber.Map{}
	}

	if _, ok := data["Errors"]; !ok {
		data["Errors"] = fiber.Map{}
	}

	p := views.Page{
		Localizer: app.Localizer(c),
		AppName:   config.Get().AppName,
		Path:      c.Path(),
		User:      CurrentUser(c),
		CSRF:      csrf.TokenFromContext(c),
		Flash:     PopFlash(c),
		Data:      data,
	}

	if len(titleID) > 0 {
		p.Title = p.T(titleID)
	}

	return p
}

func Render(c *fiber.Ctx, status int, name string, p views.Page) error {
	return c.Status(status).Render(name, p, layout)
}

// T translates a message for the current request.
func T(c *fiber.Ctx, id string, data map[string]any) string {
	s, err := app.Localizer(c).Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}

	return s
}
