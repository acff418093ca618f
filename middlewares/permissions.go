package middlewares

import (
	"context"
	"time"

	"alternanceetmoi.fr/reports/helpers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
)

// CheckPermissions matches the role of the signed-in user against the route
// policy. It must run after RequireSession.
func CheckPermissions(roles ...func(ctx context.Context, id uuid.UUID) []string) fiber.Handler {
	lookup := helpers.Roles

	if len(roles) > 0 && roles[0] != nil {
		lookup = roles[0]
	}

	return func(c *fiber.Ctx) error {
		u := helpers.CurrentUser(c)
		if u == nil {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		if helpers.RolesAllowed(lookup(c.UserContext(), u.ID), c.Path(), c.Method()) {
			return c.Next()
		}

		return fiber.NewError(fiber.StatusForbidden, "ErrorForbidden")
	}
}

// AuthLimiter bounds magic link requests per client on top of the per
// address throttle.
func AuthLimiter() fiber.Handler {
	cfg := limiter.Config{
		Max:        10,
		Expiration: 5 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "ErrorTooManyRequests")
		},
	}

	return limiter.New(cfg)
}
