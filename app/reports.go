package app

import (
	"sync"

	"alternanceetmoi.fr/reports/reports"
	"alternanceetmoi.fr/reports/utils"
)

var (
	reportService *reports.Service
	purger        reports.Purger
	onceReports   sync.Once
)

// UsePurger sets where leftover files are sent. It must be called before the
// first call to Reports.
func UsePurger(p reports.Purger) {
	purger = p
}

func Reports() *reports.Service {
	onceReports.Do(func() {
		opts := []reports.Option{
			reports.WithMaxUploadSize(utils.MaxUploadSize()),
		}

		if purger != nil {
			opts = append(opts, reports.WithPurger(purger))
		}

		reportService = reports.NewService(reports.NewGormStore(DB()), Storage(), opts...)
	})

	return reportService
}
