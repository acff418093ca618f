package app

import (
	"sync"

	"alternanceetmoi.fr/reports/config"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var (
	email     *mail.Client
	onceEmail sync.Once
)

func SMTP() *mail.Client {
	onceEmail.Do(func() {
		cfg := config.Get()

		port := cfg.EmailPort
		if port < 1 {
			port = mail.DefaultPortTLS
			zap.S().Warnf("The SMTP port '%d' is invalid. The port %d will be used instead.", cfg.EmailPort, port)
		}

		tlsPolicy := mail.TLSMandatory
		smtpAuth := mail.SMTPAuthCramMD5

		if !cfg.EmailTLS {
			tlsPolicy = mail.TLSOpportunistic
			smtpAuth = mail.SMTPAuthLogin
		}

		client, err := mail.NewClient(
			cfg.EmailHost,
			mail.WithSMTPAuth(smtpAuth),
			mail.WithTLSPortPolicy(tlsPolicy),
			mail.WithPort(port),
			mail.WithUsername(cfg.EmailUsername),
			mail.WithPassword(cfg.EmailPassword),
		)
		if err != nil {
			zap.S().Fatalf("Could not create email client: %v", err)
		}

		email = client
	})

	return email
}
