package helpers

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"alternanceetmoi.fr/reports/views"
	"github.com/gofiber/fiber/v2"
)

const FlashCookie string = "flash_"

// SetFlash stores a translated message shown once on the next rendered page.
func SetFlash(c *fiber.Ctx, kind string, message string) {
	b, err := json.Marshal(views.Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}

	c.Cookie(newCookie(FlashCookie, base64.RawURLEncoding.EncodeToString(b), time.Now().Add(5*time.Minute)))
}

func PopFlash(c *fiber.Ctx) *views.Flash {
	raw := c.Cookies(FlashCookie)
	if len(raw) < 1 {
		return nil
	}

	c.Cookie(newCookie(FlashCookie, "", time.Unix(0, 0)))

	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	f := &views.Flash{}
	if err := json.Unmarshal(b, f); err != nil || len(f.Message) < 1 {
		return nil
	}

	return f
}
