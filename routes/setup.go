package routes

import (
	"encoding/json"
	"time"

	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/controllers"
	"alternanceetmoi.fr/reports/helpers"
	"alternanceetmoi.fr/reports/middlewares"
	"alternanceetmoi.fr/reports/session"
	"alternanceetmoi.fr/reports/utils"
	"alternanceetmoi.fr/reports/views"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/idempotency"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const csrfCookie string = "csrf_"

// NewApp builds the web application with its views, error page and routes.
func NewApp() *fiber.App {
	app := New()

	SetupRoutes(app)

	return app
}

// New builds the web application without middlewares nor routes.
func New() *fiber.App {
	cfg := config.Get()

	return fiber.New(fiber.Config{
		StrictRouting: true,
		AppName:       cfg.AppName,
		Views:         views.NewEngine(cfg.AppDebug),
		ErrorHandler:  controllers.ErrorHandler,
		// Room for a handful of attachments per form.
		BodyLimit:   int(utils.MaxUploadSize())*10 + 1024*1024,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
}

func SetupRoutes(app *fiber.App) {
	cfg := config.Get()
	isDebug := utils.IsDebug()

	recoverConfig := recover.Config{
		EnableStackTrace: isDebug,
	}

	// The session cookie is already sealed.
	encryptedCookieConfig := encryptcookie.Config{
		Key:    cfg.CookieSecretKey,
		Except: []string{session.CookieName, csrfCookie},
	}

	csrfConfig := csrf.Config{
		KeyLookup:         "form:_csrf",
		CookieName:        csrfCookie,
		CookieDomain:      helpers.CookieDomain(),
		CookiePath:        "/",
		CookieSecure:      !isDebug,
		CookieHTTPOnly:    true,
		CookieSessionOnly: true,
		CookieSameSite:    "Lax",
		Expiration:        2 * time.Hour,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			zap.S().Warnf("CSRF error: %v", err)
			return fiber.NewError(fiber.StatusForbidden, "ErrorCsrf")
		},
	}

	maxRequests := cfg.LimitRequestsMax
	if maxRequests < 1 {
		maxRequests = 60
	}

	limiterConfig := limiter.Config{
		Max:        maxRequests,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "ErrorTooManyRequests")
		},
	}

	loggerConfig := logger.Config{
		Format:     "[${time}] ${locals:requestid} ${status} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05 -07:00",
		TimeZone:   utils.DefaultTimeZone(),
	}

	// Overwrite configuration when in DEBUG mode
	if isDebug {
		csrfConfig.Next = func(c *fiber.Ctx) bool {
			return isDebug
		}
		limiterConfig.Max = 250
	}

	app.Use(recover.New(recoverConfig))
	app.Use(encryptcookie.New(encryptedCookieConfig))
	app.Use(csrf.New(csrfConfig))
	app.Use(limiter.New(limiterConfig))
	app.Use(idempotency.New())
	app.Use(requestid.New())
	app.Use(logger.New(loggerConfig))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(middlewares.LoadSession())

	// Health check
	RegisterHealthCheckRoutes(app)

	// Home and auth
	RegisterAuthRoutes(app)

	// Reports
	RegisterReportRoutes(app.Group("/reports", middlewares.RequireSession(), middlewares.CheckPermissions()))

	// System
	RegisterSystemRoutes(app.Group("/admin", middlewares.RequireSession(), middlewares.CheckPermissions()))

	// Error handlers
	// Must be the last one!
	RegisterErrorHandlers(app)
}
