package app

import (
	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/utils"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

func SetupSentry() {
	isDebug := utils.IsDebug()
	env := "production"

	if isDebug {
		env = "development"
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.Get().SentryDSN,
		Debug:            isDebug,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
		ServerName:       config.Get().AppName,
		Environment:      env,
	}); err != nil {
		zap.S().Errorf("Sentry initialization failed: %v", err)
	}
}
