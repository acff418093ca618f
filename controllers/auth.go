package controllers

import (
	"strings"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/gotrue"
	"alternanceetmoi.fr/reports/helpers"
	"alternanceetmoi.fr/reports/session"
	"alternanceetmoi.fr/reports/utils"
	"alternanceetmoi.fr/reports/views"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type loginInput struct {
	Email string `form:"email"`
}

type sessionInput struct {
	AccessToken  string `form:"access_token"`
	RefreshToken string `form:"refresh_token"`
}

func AuthLogin(c *fiber.Ctx) error {
	if helpers.CurrentSession(c) != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	return helpers.Render(c, fiber.StatusOK, "pages/login", helpers.NewPage(c, "NavSignIn", nil))
}

// AuthSendMagicLink emails a sign-in link. The PKCE verifier stays in an
// encrypted cookie until the link is opened in the same browser.
func AuthSendMagicLink(c *fiber.Ctx) error {
	input := &loginInput{}
	if err := c.BodyParser(input); err != nil {
		zap.S().Errorf("Error parsing input data: %v", err)
	}

	email := utils.NormalizeEmail(input.Email)
	data := fiber.Map{"Email": email}

	if !utils.IsValidEmail(email) {
		data["Errors"] = utils.AddError(fiber.Map{}, "email", "ErrorInvalidEmail")
		return helpers.Render(c, fiber.StatusUnprocessableEntity, "pages/login", helpers.NewPage(c, "NavSignIn", data))
	}

	allowed, err := helpers.AllowMagicLink(c.UserContext(), email)
	if err != nil {
		sentry.CaptureException(err)
	}

	if !allowed {
		data["Errors"] = utils.AddError(fiber.Map{}, "email", "LoginThrottled")
		return helpers.Render(c, fiber.StatusTooManyRequests, "pages/login", helpers.NewPage(c, "NavSignIn", data))
	}

	verifier := gotrue.NewCodeVerifier()

	if err := app.GoTrue().SendMagicLink(gotrue.MagicLinkRequest{
		Email:        email,
		RedirectTo:   config.Get().SiteURL + "/auth/callback",
		CodeVerifier: verifier,
	}); err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not send magic link: %v", err)

		data["Errors"] = utils.AddError(fiber.Map{}, "email", "ErrorMagicLink")
		return helpers.Render(c, fiber.StatusBadGateway, "pages/login", helpers.NewPage(c, "NavSignIn", data))
	}

	helpers.SetVerifierCookie(c, verifier)

	data["Sent"] = true

	return helpers.Render(c, fiber.StatusOK, "pages/login", helpers.NewPage(c, "NavSignIn", data))
}

// AuthCallback finishes the sign in from the emailed link. Links carrying
// the tokens in the URL fragment are handled by the browser, the rendered
// page posts them back to AuthSetSession.
func AuthCallback(c *fiber.Ctx) error {
	if e := c.Query("error"); len(e) > 0 {
		zap.S().Warnf("Sign in refused by the auth service: %s: %s", e, c.Query("error_description"))
		return signInFailed(c)
	}

	var (
		s   *gotrue.Session
		err error
	)

	code := c.Query("code")
	tokenHash := c.Query("token_hash")
	kind := c.Query("type")

	switch {
	case len(code) > 0:
		s, err = app.GoTrue().ExchangeCode(code, helpers.PopVerifier(c))
	case len(tokenHash) > 0 && len(kind) > 0:
		s, err = app.GoTrue().VerifyTokenHash(tokenHash, kind)
	default:
		return helpers.Render(c, fiber.StatusOK, "pages/callback", helpers.NewPage(c, "CallbackFinishing", nil))
	}

	if err != nil {
		zap.S().Warnf("Could not complete sign in: %v", err)
		return signInFailed(c)
	}

	return startSession(c, s)
}

func AuthSetSession(c *fiber.Ctx) error {
	input := &sessionInput{}
	if err := c.BodyParser(input); err != nil {
		zap.S().Errorf("Error parsing input data: %v", err)
		return signInFailed(c)
	}

	s, err := app.GoTrue().SessionFromTokens(strings.TrimSpace(input.AccessToken), strings.TrimSpace(input.RefreshToken), time.Now())
	if err != nil {
		zap.S().Warnf("Invalid tokens received on callback: %v", err)
		return signInFailed(c)
	}

	return startSession(c, s)
}

func AuthLogout(c *fiber.Ctx) error {
	if claims := helpers.CurrentSession(c); claims != nil {
		if err := app.GoTrue().SignOut(claims.AccessToken); err != nil {
			zap.S().Warnf("Could not sign out from the auth service: %v", err)
		}

		if err := helpers.RevokeSession(c.UserContext(), claims, time.Now()); err != nil {
			sentry.CaptureException(err)
			zap.S().Errorf("Could not revoke session '%s': %v", claims.SessionID(), err)
		}
	}

	helpers.ClearSessionCookie(c)

	return c.Redirect("/", fiber.StatusSeeOther)
}

func startSession(c *fiber.Ctx, s *gotrue.Session) error {
	if s == nil || !utils.IsValidUuid(s.User.ID) {
		zap.S().Warn("The auth service returned a session without user.")
		return signInFailed(c)
	}

	now := time.Now()
	claims := session.New(session.User{ID: s.User.ID, Email: s.User.Email}, s.AccessToken, s.RefreshToken, s.Expiry(), now)

	if err := helpers.SetSessionCookie(c, claims); err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not seal session: %v", err)
		return signInFailed(c)
	}

	if err := helpers.UpsertAccount(c.UserContext(), s.User, now); err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not save account '%s': %v", s.User.ID, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func signInFailed(c *fiber.Ctx) error {
	helpers.SetFlash(c, views.FlashError, helpers.T(c, "ErrorSignInFailed", nil))
	return c.Redirect("/login", fiber.StatusSeeOther)
}
