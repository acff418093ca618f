package app

import (
	"errors"
	"fmt"
	"sync"

	"alternanceetmoi.fr/reports/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

var (
	rdb       rueidis.Client
	onceCache sync.Once
)

func Cache() rueidis.Client {
	onceCache.Do(func() {
		cfg := config.Get()

		client, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: []string{RedisAddress()},
			Password:    cfg.RedisPass,
			SelectDB:    0,
		})
		if err != nil && !errors.Is(err, rueidis.Nil) {
			zap.S().Fatalf("Could not connect to Redis: %v", err)
		}

		rdb = client
	})

	return rdb
}

func RedisAddress() string {
	cfg := config.Get()

	port := cfg.RedisPort
	if port < 1 {
		port = 6379
	}

	return fmt.Sprintf("%s:%d", cfg.RedisHost, port)
}
