package routes

import (
	"alternanceetmoi.fr/reports/controllers"
	"github.com/gofiber/fiber/v2"
)

func RegisterHealthCheckRoutes(g fiber.Router) {
	g.Get("/health", controllers.HealthCheck).Name("health")
}
