package jobs

import (
	"context"
	"time"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/logging"
)

// Minimum gap before the startup run fires; avoids hammering the provider
// when the process restarts shortly after a completed run.
const startupSyncGap = 4 * time.Hour

// InitializeJobs starts the scheduled reconciliation in the background and
// returns the job for manual triggering
func InitializeJobs(ctx context.Context, syncJob *DriverSyncJob, interval time.Duration) *DriverSyncJob {
	go syncJob.RunScheduled(ctx, interval)
	return syncJob
}

// RunScheduled runs the reconciliation on a fixed interval until the
// context is cancelled. An immediate startup run happens only when the
// last completed run is older than startupSyncGap.
func (j *DriverSyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if j.shouldRunOnStartup(ctx) {
		if _, err := j.Run(ctx, constants.SyncTriggerAuto, nil); err != nil {
			logging.Error("startup reconciliation failed", "error", err.Error())
		}
	}

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx, constants.SyncTriggerAuto, nil); err != nil {
				logging.Error("scheduled reconciliation failed", "error", err.Error())
			}
		case <-ctx.Done():
			logging.Info("stopping scheduled reconciliation")
			return
		}
	}
}

func (j *DriverSyncJob) shouldRunOnStartup(ctx context.Context) bool {
	last, err := j.syncLogs.LastFinishedAt(ctx, constants.SyncEventDrivers)
	if err != nil {
		logging.Warn("failed to check last sync time, running anyway", "error", err.Error())
		return true
	}
	if last == nil {
		return true
	}
	return time.Since(*last) > startupSyncGap
}
