package app

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/utils"
	"github.com/BurntSushi/toml"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

var (
	bundle     *i18n.Bundle
	onceBundle sync.Once
)

// NewBundle loads the embedded translations of the allowed languages.
func NewBundle(defaultLang string, allowed []string) (*i18n.Bundle, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("Invalid default language '%s': %w", defaultLang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	langs := utils.CleanStringList(append([]string{defaultLang}, allowed...))

	for _, lang := range langs {
		lang = strings.ToLower(lang)

		if _, err := b.LoadMessageFileFS(locales, fmt.Sprintf("locales/active.%s.toml", lang)); err != nil {
			return nil, fmt.Errorf("Could not load translation file for '%s': %w", lang, err)
		}
	}

	return b, nil
}

func Bundle() *i18n.Bundle {
	onceBundle.Do(func() {
		cfg := config.Get()

		defaultLang := strings.TrimSpace(cfg.DefaultLang)
		if len(defaultLang) < 1 {
			defaultLang = "fr"
			zap.S().Warnf("Default language not specified. Using fallback language '%s'.", defaultLang)
		}

		b, err := NewBundle(defaultLang, utils.SplitList(cfg.AllowedLangs))
		if err != nil {
			sentry.CaptureException(err)
			zap.S().Errorf("Could not load translations: %v", err)

			b, _ = NewBundle("fr", nil)
		}

		bundle = b
	})

	return bundle
}

// Localizer picks the language from the lang query parameter, the lang
// cookie, then the Accept-Language header.
func Localizer(c *fiber.Ctx) *i18n.Localizer {
	langs := []string{}

	for _, v := range []string{c.Query("lang"), c.Cookies("lang"), c.Get(fiber.HeaderAcceptLanguage)} {
		if v = utils.CleanString(v); len(v) > 0 {
			langs = append(langs, v)
		}
	}

	return i18n.NewLocalizer(Bundle(), langs...)
}

// LocalizerFor builds a localizer outside of a request, e.g. for emails.
func LocalizerFor(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(Bundle(), langs...)
}

func Translate(c *fiber.Ctx, conf *i18n.LocalizeConfig) string {
	return Localizer(c).MustLocalize(conf)
}
