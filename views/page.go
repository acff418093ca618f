package views

import (
	"strconv"
	"time"

	"alternanceetmoi.fr/reports/session"
	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
)

const (
	FlashSuccess string = "success"
	FlashError   string = "error"
)

type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// Page is the data every template receives.
type Page struct {
	Localizer *i18n.Localizer
	AppName   string
	Title     string
	Path      string
	User      *session.User
	CSRF      string
	Flash     *Flash
	Data      fiber.Map
}

func (p Page) SignedIn() bool {
	return p.User != nil
}

func (p Page) IsActive(path string) bool {
	return p.Path == path
}

// T translates a message id. Extra arguments are template data key/value
// pairs: {{.T "LoginSentText" "Email" .Data.Email}}.
func (p Page) T(id string, pairs ...any) string {
	return p.localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: templateData(pairs)})
}

// Plural translates a message id with plural forms, the count is available
// as {{.Count}} in the message.
func (p Page) Plural(id string, count int) string {
	return p.localize(&i18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

// LongDate renders a calendar day in words, e.g. "lundi 3 mars 2025".
func (p Page) LongDate(t time.Time) string {
	return LongDate(p.Localizer, t)
}

func (p Page) localize(conf *i18n.LocalizeConfig) string {
	if p.Localizer == nil {
		return conf.MessageID
	}

	s, err := p.Localizer.Localize(conf)
	if err != nil {
		zap.S().Warnf("Missing translation '%s': %v", conf.MessageID, err)
		return conf.MessageID
	}

	return s
}

func LongDate(l *i18n.Localizer, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	if l == nil {
		return t.Format("2006-01-02")
	}

	word := func(id string) string {
		s, err := l.Localize(&i18n.LocalizeConfig{MessageID: id})
		if err != nil {
			return id
		}

		return s
	}

	s, err := l.Localize(&i18n.LocalizeConfig{
		MessageID: "LongDate",
		TemplateData: map[string]any{
			"Weekday": word("Weekday" + strconv.Itoa(int(t.Weekday()))),
			"Day":     t.Day(),
			"Month":   word("Month" + strconv.Itoa(int(t.Month()))),
			"Year":    t.Year(),
		},
	})
	if err != nil {
		return t.Format("2006-01-02")
	}

	return s
}

func templateData(pairs []any) map[string]any {
	if len(pairs) < 2 {
		return nil
	}

	data := make(map[string]any, len(pairs)/2)

	for i := 0; i+1 < len(pairs); i += 2 {
		if k, ok := pairs[i].(string); ok {
			data[k] = pairs[i+1]
		}
	}

	return data
}
