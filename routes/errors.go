package routes

import (
	"alternanceetmoi.fr/reports/controllers"
	"github.com/gofiber/fiber/v2"
)

func RegisterErrorHandlers(g fiber.Router) {
	// Redirect for links to the former form address
	g.Get("/new-report", controllers.LegacyNewReport)

	// 404 Handler
	g.Use(controllers.NotFound)
}
