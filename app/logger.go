package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetupLogger installs the global zap logger. Code logs through zap.S().
func SetupLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()

	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}

	zap.ReplaceGlobals(logger)

	return logger
}
