package app

import (
	"context"
	"sync"
	"time"

	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/storage"
	"alternanceetmoi.fr/reports/utils"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

var (
	bucket      storage.Bucket
	onceStorage sync.Once
)

// Storage returns the attachment bucket. Without credentials in debug mode the
// files are kept in memory.
func Storage() storage.Bucket {
	onceStorage.Do(func() {
		cfg := config.Get()
		publicBase := cfg.SupabaseURL + "/storage/v1/object/public"

		if len(cfg.StorageAccessKey) < 1 && utils.IsDebug() {
			zap.S().Warn("Storage credentials are empty. Attachments are kept in memory.")
			bucket = storage.NewMemoryBucket(publicBase, cfg.StorageBucket)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		b, err := storage.NewS3Bucket(ctx, storage.S3Options{
			Endpoint:      cfg.StorageEndpoint,
			Region:        cfg.StorageRegion,
			AccessKey:     cfg.StorageAccessKey,
			SecretKey:     cfg.StorageSecretKey,
			Bucket:        cfg.StorageBucket,
			PublicBaseURL: publicBase,
		})
		if err != nil {
			sentry.CaptureException(err)
			zap.S().Fatalf("Could not create storage client: %v", err)
		}

		bucket = b
	})

	return bucket
}
