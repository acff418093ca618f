package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alternanceetmoi.fr/reports/storage"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TaskStoragePurge string = "storage:purge"
)

type StoragePurgePayload struct {
	Paths []string `json:"paths"`
}

func NewStoragePurgeTask(paths []string) (*asynq.Task, error) {
	if len(paths) < 1 {
		return nil, errors.New("No paths to purge.")
	}

	payload, err := json.Marshal(StoragePurgePayload{Paths: paths})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskStoragePurge, payload), nil
}

// NewStoragePurgeHandler removes files left behind by report deletions.
// Failures are retried by the queue.
func NewStoragePurgeHandler(bucket storage.Bucket) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		p := StoragePurgePayload{}
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("Could not decode payload: %w: %w", err, asynq.SkipRetry)
		}

		if len(p.Paths) < 1 {
			return nil
		}

		if err := bucket.Remove(ctx, p.Paths...); err != nil {
			return fmt.Errorf("Could not purge %d files: %w", len(p.Paths), err)
		}

		zap.S().Infof("Purged %d files from storage.", len(p.Paths))

		return nil
	}
}

// Purger hands leftover attachment files to the worker.
type Purger struct{}

func (Purger) SchedulePurge(paths []string) error {
	task, err := NewStoragePurgeTask(paths)
	if err != nil {
		return err
	}

	info, err := AsynqClient().Enqueue(task,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(10),
		asynq.ProcessIn(time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("Could not enqueue storage purge: %w", err)
	}

	zap.S().Infof("Enqueued task: [%s] %s", info.ID, info.Queue)

	return nil
}
