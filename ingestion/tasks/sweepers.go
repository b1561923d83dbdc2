package tasks

import (
	"time"

	"sellthrough-backend/ingestion/repositories"
	"sellthrough-backend/ingestion/reports"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// Batches stuck in processing longer than this are presumed dead
	// (worker crash, OOM) and swept back to failed.
	stuckBatchAge = 30 * time.Minute

	// Error report workbooks are kept this long before the files and
	// their log rows are removed.
	reportRetentionDays = 30
)

// StartSweepers registers the housekeeping cron jobs and starts the
// scheduler. The returned cron can be stopped on shutdown.
func StartSweepers(batches repositories.BatchRepository, reporter *reports.Reporter, logger *zap.Logger) *cron.Cron {
	c := cron.New()

	// Every 10 minutes, fail batches whose worker died mid-run.
	c.AddFunc("*/10 * * * *", func() {
		swept, err := batches.SweepStuckBatches(stuckBatchAge)
		if err != nil {
			logger.Error("stuck batch sweep failed", zap.Error(err))
			return
		}
		if swept > 0 {
			logger.Warn("swept stuck batches", zap.Int64("count", swept))
		}
	})

	// Daily at 2 AM, drop expired error report artifacts.
	c.AddFunc("0 2 * * *", func() {
		if err := reporter.CleanupOlderThan(reportRetentionDays); err != nil {
			logger.Error("report retention sweep failed", zap.Error(err))
		}
	})

	c.Start()
	logger.Info("ingestion sweepers started",
		zap.Duration("stuck_batch_age", stuckBatchAge),
		zap.Int("report_retention_days", reportRetentionDays))
	return c
}
