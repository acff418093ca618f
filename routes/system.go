package routes

import (
	"alternanceetmoi.fr/reports/controllers"
	"github.com/gofiber/fiber/v2"
)

func RegisterSystemRoutes(g fiber.Router) {
	// Private
	g.Post("/cache/purge", controllers.PurgeCache).Name("admin.cache.purge")
}
