package app

import (
	"sync"
	"time"

	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/gotrue"
	"alternanceetmoi.fr/reports/session"
	"go.uber.org/zap"
)

var (
	authClient *gotrue.Client
	sealer     *session.Sealer
	onceGoTrue sync.Once
	onceSealer sync.Once
)

func GoTrue() *gotrue.Client {
	onceGoTrue.Do(func() {
		cfg := config.Get()

		authClient = gotrue.New(gotrue.Options{
			BaseURL:   cfg.SupabaseURL,
			APIKey:    cfg.SupabaseAnonKey,
			JWTSecret: cfg.SupabaseJWTSecret,
			Timeout:   10 * time.Second,
		})
	})

	return authClient
}

func Sealer() *session.Sealer {
	onceSealer.Do(func() {
		s, err := session.NewSealer(config.Get().SessionSecretKey)
		if err != nil {
			zap.S().Fatalf("Could not create session sealer: %v", err)
		}

		sealer = s
	})

	return sealer
}
