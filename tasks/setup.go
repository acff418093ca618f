package tasks

import (
	"context"
	"sync"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/utils"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	QueueCritical string = "critical"
	QueueDefault  string = "default"
	QueueLow      string = "low"
)

var (
	client          *asynq.Client
	server          *asynq.Server
	serveMux        *asynq.ServeMux
	taskManager     *asynq.PeriodicTaskManager
	onceTasks       sync.Once
	onceServer      sync.Once
	onceServeMux    sync.Once
	onceTaskManager sync.Once
)

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     app.RedisAddress(),
		Password: config.Get().RedisPass,
		DB:       0,
	}
}

func AsynqClient() *asynq.Client {
	onceTasks.Do(func() {
		client = asynq.NewClient(redisOpt())
	})

	return client
}

func AsynqServer() *asynq.Server {
	onceServer.Do(func() {
		server = asynq.NewServer(
			redisOpt(),
			asynq.Config{
				Concurrency: 10,
				Queues: map[string]int{
					QueueCritical: 6,
					QueueDefault:  3,
					QueueLow:      1,
				},
				ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
					sentry.CaptureException(err)
					zap.S().Errorf("Task '%s' failed: %v", t.Type(), err)
				}),
				Logger: zap.S(),
			},
		)
	})

	return server
}

func AsynqServeMux() *asynq.ServeMux {
	onceServeMux.Do(func() {
		serveMux = asynq.NewServeMux()
		serveMux.HandleFunc(TaskEmailDelivery, HandleEmailDeliveryTask)
		serveMux.HandleFunc(TaskStoragePurge, NewStoragePurgeHandler(app.Storage()))
		serveMux.HandleFunc(TaskReportsDigest, HandleReportsDigestTask)
	})

	return serveMux
}

func AsynqPeriodicTaskManager() *asynq.PeriodicTaskManager {
	onceTaskManager.Do(func() {
		m, err := asynq.NewPeriodicTaskManager(asynq.PeriodicTaskManagerOpts{
			RedisConnOpt:               redisOpt(),
			PeriodicTaskConfigProvider: NewTasksConfigProvider(),
			SchedulerOpts: &asynq.SchedulerOpts{
				Location: utils.DefaultLocation(),
				Logger:   zap.S(),
			},
			SyncInterval: 5 * time.Minute,
		})
		if err != nil {
			sentry.CaptureException(err)
			zap.S().Fatalf("Could not create periodic task manager: %v", err)
		}

		taskManager = m
	})

	return taskManager
}
