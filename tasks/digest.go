package tasks

import (
	"context"
	"fmt"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/helpers"
	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/views"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
)

const (
	TaskReportsDigest string = "reports:digest"

	digestDays     int    = 7
	digestTemplate string = "weekly_digest"
)

// HandleReportsDigestTask emails every opted-in account a summary of the
// reports written during the last week. Accounts without reports are skipped.
func HandleReportsDigestTask(ctx context.Context, _ *asynq.Task) error {
	accounts, err := helpers.DigestAccounts(ctx)
	if err != nil {
		return fmt.Errorf("Could not list digest accounts: %w", err)
	}

	cfg := config.Get()
	localizer := app.LocalizerFor(cfg.DefaultLang)
	sent := 0

	for _, a := range accounts {
		if !a.WantsDigest() {
			continue
		}

		list, err := app.Reports().Recent(ctx, a.ID, digestDays)
		if err != nil {
			sentry.CaptureException(err)
			zap.S().Errorf("Could not list recent reports of account '%s': %v", a.ID, err)
			continue
		}

		if len(list) < 1 {
			continue
		}

		opts, data := DigestEmail(localizer, cfg.DefaultLang, a, list, cfg.SiteURL)

		if err := NewEmail(ctx, opts, data, asynq.Queue(QueueLow)); err != nil {
			continue
		}

		sent++
	}

	zap.S().Infof("Weekly digest queued for %d of %d accounts.", sent, len(accounts))

	return nil
}

// DigestEmail builds the weekly digest message of one account.
func DigestEmail(l *i18n.Localizer, lang string, a models.Account, list []models.Report, siteURL string) (helpers.EmailOpts, map[string]interface{}) {
	t := func(id string, data map[string]any, count any) string {
		s, err := l.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data, PluralCount: count})
		if err != nil {
			zap.S().Warnf("Missing translation '%s': %v", id, err)
			return id
		}

		return s
	}

	rows := make([]map[string]interface{}, 0, len(list))

	for _, r := range list {
		rows = append(rows, map[string]interface{}{
			"Date":  views.LongDate(l, r.Date),
			"Title": r.Title,
			"Files": len(r.Attachments),
		})
	}

	opts := helpers.EmailOpts{
		Subject:      t("DigestSubject", nil, nil),
		TemplateName: digestTemplate,
		ToList:       []string{a.Email},
		Lang:         lang,
	}

	data := map[string]interface{}{
		"Intro":      t("DigestIntro", nil, nil),
		"Summary":    t("DigestCount", map[string]any{"Count": len(list)}, len(list)),
		"Reports":    rows,
		"ReportsURL": siteURL + "/reports",
		"Open":       t("DigestOpen", nil, nil),
		"Footer":     t("DigestFooter", nil, nil),
	}

	return opts, data
}

// EnqueueDigest runs the weekly digest now instead of waiting for the
// scheduler.
func EnqueueDigest() (*asynq.TaskInfo, error) {
	return AsynqClient().Enqueue(
		asynq.NewTask(TaskReportsDigest, nil),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
	)
}
