package helpers

import (
	"errors"
	"fmt"
	"time"

	html_tpl "html/template"
	text_tpl "text/template"

	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/utils"
	"alternanceetmoi.fr/reports/views"
	"github.com/wneessen/go-mail"
)

type EmailOpts struct {
	Subject      string   `json:"subject"`
	TemplateName string   `json:"template_name"`
	ToList       []string `json:"to_list"`
	Lang         string   `json:"lang"`
}

func (e EmailOpts) IsValid() bool {
	return len(e.Subject) > 0 && len(e.TemplateName) > 0 && len(e.ToList) > 0
}

// NewEmailMessage renders an embedded email template pair into a message.
func NewEmailMessage(opts EmailOpts, data map[string]interface{}) (*mail.Msg, error) {
	cfg := config.Get()

	if !utils.IsValidEmail(cfg.EmailFrom) {
		return nil, errors.New("The from email address is invalid.")
	}

	if !opts.IsValid() {
		return nil, errors.New("Missing information to send email.")
	}

	htmlTpl, err := html_tpl.ParseFS(views.Emails, "email/"+opts.TemplateName+".html")
	if err != nil {
		return nil, fmt.Errorf("Error loading the HTML template: %w", err)
	}

	textTpl, err := text_tpl.ParseFS(views.Emails, "email/"+opts.TemplateName+".txt")
	if err != nil {
		return nil, fmt.Errorf("Error loading the TEXT template: %w", err)
	}

	msg := mail.NewMsg()
	msg.SetMessageID()
	msg.SetDate()
	msg.SetBulk()
	msg.Subject(opts.Subject + " • " + cfg.AppName)

	if err := msg.FromFormat(cfg.AppName, cfg.EmailFrom); err != nil {
		return nil, fmt.Errorf("Could not set the from email address: %w", err)
	}

	if len(utils.SupportEmail()) > 0 {
		if err := msg.ReplyTo(utils.SupportEmail()); err != nil {
			return nil, fmt.Errorf("Could not set the reply-to email address: %w", err)
		}
	}

	if data == nil {
		data = map[string]interface{}{}
	}

	data["Lang"] = opts.Lang
	data["AppName"] = cfg.AppName
	data["SiteURL"] = cfg.SiteURL
	data["Subject"] = opts.Subject
	data["Now"] = time.Now().In(utils.DefaultLocation())

	if err := msg.SetBodyHTMLTemplate(htmlTpl, data); err != nil {
		return nil, fmt.Errorf("Error setting HTML template: %w", err)
	}

	if err := msg.AddAlternativeTextTemplate(textTpl, data); err != nil {
		return nil, fmt.Errorf("Error setting TEXT template: %w", err)
	}

	msg.ToIgnoreInvalid(opts.ToList...)

	return msg, nil
}
