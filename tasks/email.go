package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/helpers"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TaskEmailDelivery string = "email:delivery"
)

type EmailDeliveryPayload struct {
	Options helpers.EmailOpts      `json:"options"`
	Data    map[string]interface{} `json:"data"`
}

func NewEmailDeliveryTask(opts helpers.EmailOpts, data map[string]interface{}) (*asynq.Task, error) {
	if !opts.IsValid() {
		return nil, fmt.Errorf("Incomplete email options for template '%s'.", opts.TemplateName)
	}

	payload, err := json.Marshal(EmailDeliveryPayload{Options: opts, Data: data})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskEmailDelivery, payload), nil
}

// HandleEmailDeliveryTask renders and sends a queued email. Messages that
// cannot be rendered are dropped, SMTP failures are retried.
func HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	p := EmailDeliveryPayload{}
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("Could not decode payload: %w: %w", err, asynq.SkipRetry)
	}

	msg, err := helpers.NewEmailMessage(p.Options, p.Data)
	if err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("Could not render email '%s': %w: %w", p.Options.TemplateName, err, asynq.SkipRetry)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := app.SMTP().DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("Could not deliver email '%s': %w", p.Options.TemplateName, err)
	}

	return nil
}

// NewEmail queues an email on the default queue unless opts say otherwise.
func NewEmail(ctx context.Context, s helpers.EmailOpts, d map[string]interface{}, opts ...asynq.Option) error {
	task, err := NewEmailDeliveryTask(s, d)
	if err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not create task: %v", err)
		return err
	}

	opts = append([]asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Retention(24 * time.Hour),
	}, opts...)

	info, err := AsynqClient().EnqueueContext(ctx, task, opts...)
	if err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not enqueue task: %v", err)
		return err
	}

	zap.S().Infof("Enqueued task: [%s] %s", info.ID, info.Queue)

	return nil
}
