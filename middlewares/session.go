package middlewares

import (
	"context"
	"errors"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/gotrue"
	"alternanceetmoi.fr/reports/helpers"
	"alternanceetmoi.fr/reports/session"
	"alternanceetmoi.fr/reports/views"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SessionConfig struct {
	Sealer    *session.Sealer
	Refresh   func(refreshToken string) (*gotrue.Session, error)
	IsRevoked func(ctx context.Context, id string) (bool, error)
	Now       func() time.Time
}

func sessionConfigDefault(config ...SessionConfig) SessionConfig {
	cfg := SessionConfig{}

	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Sealer == nil {
		cfg.Sealer = app.Sealer()
	}

	if cfg.Refresh == nil {
		cfg.Refresh = func(rt string) (*gotrue.Session, error) {
			return app.GoTrue().Refresh(rt)
		}
	}

	if cfg.IsRevoked == nil {
		cfg.IsRevoked = helpers.IsSessionRevoked
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return cfg
}

// LoadSession opens the session cookie and refreshes the auth tokens when
// they are about to expire. Invalid sessions are dropped, the request then
// continues signed out.
func LoadSession(config ...SessionConfig) fiber.Handler {
	cfg := sessionConfigDefault(config...)

	return func(c *fiber.Ctx) error {
		raw := c.Cookies(session.CookieName)
		if len(raw) < 1 {
			return c.Next()
		}

		now := cfg.Now()

		claims, err := cfg.Sealer.Open(raw, now)
		if err != nil {
			if !errors.Is(err, session.ErrExpiredSession) {
				zap.S().Warnf("Invalid session cookie: %v", err)
			}

			helpers.ClearSessionCookie(c)
			return c.Next()
		}

		revoked, err := cfg.IsRevoked(c.UserContext(), claims.SessionID())
		if err != nil {
			sentry.CaptureException(err)
			zap.S().Errorf("Could not check session revocation '%s': %v", claims.SessionID(), err)
		}

		if err != nil || revoked {
			helpers.ClearSessionCookie(c)
			return c.Next()
		}

		if claims.NeedsRefresh(now) {
			s, err := cfg.Refresh(claims.RefreshToken)
			if err != nil {
				zap.S().Warnf("Could not refresh session '%s': %v", claims.SessionID(), err)
				helpers.ClearSessionCookie(c)
				helpers.SetFlash(c, views.FlashError, helpers.T(c, "ErrorSessionExpired", nil))

				return c.Next()
			}

			rotated := claims.Rotate(s.AccessToken, s.RefreshToken, s.Expiry())

			if err := helpers.SealSessionCookie(c, cfg.Sealer, rotated); err != nil {
				sentry.CaptureException(err)
				zap.S().Errorf("Could not reseal session: %v", err)
				helpers.ClearSessionCookie(c)

				return c.Next()
			}

			return c.Next()
		}

		c.Locals(helpers.SessionContextKey, claims)

		return c.Next()
	}
}

// RequireSession sends signed-out visitors to the login page.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if helpers.CurrentSession(c) == nil {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		return c.Next()
	}
}
