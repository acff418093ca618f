package app

import (
	_ "embed"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

var (
	//go:embed casbin/model.conf
	casbinModel string

	//go:embed casbin/policy.csv
	casbinPolicy string

	auth     *casbin.SyncedEnforcer
	onceAuth sync.Once
)

// Auth returns the role enforcer. Requests are (role, path, method).
func Auth() *casbin.SyncedEnforcer {
	onceAuth.Do(func() {
		m, err := model.NewModelFromString(casbinModel)
		if err != nil {
			sentry.CaptureException(err)
			zap.S().Fatalf("Could not read Casbin model: %v", err)
		}

		e, err := casbin.NewSyncedEnforcer(m, stringadapter.NewAdapter(casbinPolicy))
		if err != nil {
			sentry.CaptureException(err)
			zap.S().Fatalf("Could not create enforcer: %v", err)
		}

		if err := e.LoadPolicy(); err != nil {
			sentry.CaptureException(err)
			zap.S().Fatalf("Could not load policy: %v", err)
		}

		auth = e
	})

	return auth
}
