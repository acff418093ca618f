package utils

import (
	"time"
	_ "time/tzdata"

	"alternanceetmoi.fr/reports/config"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	minUploadSize     int64 = 1
	defaultUploadSize int64 = 10
	maxUploadSize     int64 = 50
	mibMultiplier     int64 = 1024 * 1024
)

func IsDebug() bool {
	return config.Get().AppDebug
}

func SupportEmail() string {
	e := config.Get().SupportEmail

	if len(e) < 1 {
		zap.S().Warn("Support email is empty.")
		return ""
	}

	if !IsValidEmail(e) {
		zap.S().Error("Support email is invalid.")
		return ""
	}

	return e
}

func DefaultTimeZone() string {
	tz := config.Get().TimeZone
	if len(tz) < 1 {
		tz = "Europe/Paris"
	}

	return tz
}

func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimeZone())
	if err != nil {
		sentry.CaptureException(err)
		return time.Now().Location()
	}

	return loc
}

// MaxUploadSize returns the per-file upload limit in bytes.
func MaxUploadSize() int64 {
	size := config.Get().MaxUploadSizeMiB

	if size < minUploadSize {
		size = defaultUploadSize
	}

	if size > maxUploadSize {
		size = maxUploadSize
	}

	return size * mibMultiplier
}

func MagicLinkCooldown() time.Duration {
	s := config.Get().MagicLinkCooldown

	if s < 1 {
		s = 60
	}

	return time.Duration(s) * time.Second
}
