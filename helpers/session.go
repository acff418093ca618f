package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/session"
	"alternanceetmoi.fr/reports/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	SessionContextKey string = "session"
	VerifierCookie    string = "pkce_"
	verifierLifetime         = time.Hour
)

// CookieDomain is the registrable domain of the site, empty for localhost so
// browsers keep host-only cookies.
func CookieDomain() string {
	return utils.RegistrableDomain(config.Get().SiteURL)
}

func newCookie(name string, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   CookieDomain(),
		Expires:  expires,
		Secure:   !utils.IsDebug(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func SetSessionCookie(c *fiber.Ctx, claims session.Claims) error {
	return SealSessionCookie(c, app.Sealer(), claims)
}

func SealSessionCookie(c *fiber.Ctx, sealer *session.Sealer, claims session.Claims) error {
	raw, err := sealer.Seal(claims)
	if err != nil {
		return err
	}

	c.Cookie(newCookie(session.CookieName, raw, claims.Expiry.Time()))
	c.Locals(SessionContextKey, &claims)

	return nil
}

func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(newCookie(session.CookieName, "", time.Unix(0, 0)))
	c.Locals(SessionContextKey, nil)
}

// CurrentSession returns the session loaded by the session middleware.
func CurrentSession(c *fiber.Ctx) *session.Claims {
	claims, ok := c.Locals(SessionContextKey).(*session.Claims)
	if !ok {
		return nil
	}

	return claims
}

func CurrentUser(c *fiber.Ctx) *session.User {
	claims := CurrentSession(c)
	if claims == nil {
		return nil
	}

	return &claims.User
}

func revokedKey(id string) string {
	return fmt.Sprintf("sessions:revoked:%s", id)
}

// RevokeSession blocks a sealed session until it would have expired anyway.
func RevokeSession(ctx context.Context, claims *session.Claims, now time.Time) error {
	if claims == nil || len(claims.SessionID()) < 1 {
		return nil
	}

	ttl := session.MaxLifetime
	if claims.Expiry != nil {
		ttl = claims.Expiry.Time().Sub(now)
	}

	if ttl <= 0 {
		return nil
	}

	return app.Cache().Do(ctx, app.Cache().B().Set().Key(revokedKey(claims.SessionID())).Value("1").Ex(ttl).Build()).Error()
}

func IsSessionRevoked(ctx context.Context, id string) (bool, error) {
	if len(id) < 1 {
		return true, nil
	}

	v, err := app.Cache().DoCache(ctx, app.Cache().B().Get().Key(revokedKey(id)).Cache(), time.Minute).ToString()
	if err != nil {
		if errors.Is(err, rueidis.Nil) {
			return false, nil
		}

		return false, err
	}

	return len(v) > 0, nil
}

// SetVerifierCookie keeps the PKCE verifier until the magic link is opened.
// The cookie is encrypted by the cookie middleware.
func SetVerifierCookie(c *fiber.Ctx, verifier string) {
	c.Cookie(newCookie(VerifierCookie, verifier, time.Now().Add(verifierLifetime)))
}

func PopVerifier(c *fiber.Ctx) string {
	v := c.Cookies(VerifierCookie)

	if len(v) > 0 {
		c.Cookie(newCookie(VerifierCookie, "", time.Unix(0, 0)))
	}

	return v
}

// AllowMagicLink reports whether a magic link may be sent to the address.
// The first call wins for the cooldown period.
func AllowMagicLink(ctx context.Context, email string) (bool, error) {
	key := fmt.Sprintf("magic-link:%s", utils.HashEmail(email))

	err := app.Cache().Do(ctx, app.Cache().B().Set().Key(key).Value("1").Nx().Ex(utils.MagicLinkCooldown()).Build()).Error()
	if err == nil {
		return true, nil
	}

	if errors.Is(err, rueidis.Nil) {
		return false, nil
	}

	zap.S().Errorf("Could not check magic link throttle: %v", err)

	return true, err
}
