package routes

import (
	"alternanceetmoi.fr/reports/controllers"
	"alternanceetmoi.fr/reports/middlewares"
	"github.com/gofiber/fiber/v2"
)

func RegisterAuthRoutes(g fiber.Router) {
	limit := middlewares.AuthLimiter()

	g.Get("/", controllers.Home).Name("home")

	// Public
	g.Get("/login", controllers.AuthLogin).Name("auth.login")
	g.Post("/login", limit, controllers.AuthSendMagicLink).Name("auth.login.send")
	g.Get("/auth/callback", controllers.AuthCallback).Name("auth.callback")
	g.Post("/auth/callback", limit, controllers.AuthSetSession).Name("auth.callback.session")
	g.Post("/logout", controllers.AuthLogout).Name("auth.logout")
}
