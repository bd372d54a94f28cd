package app

import (
	"context"
	"fmt"
	"time"

	"github.com/keyward/core/internal/modules/activity"
	"github.com/keyward/core/internal/modules/appuser"
	pkgcron "github.com/keyward/core/internal/pkg/cron"
	"github.com/keyward/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const activityRetentionDays = 90

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "cleanup_account_sessions",
		Description: "delete expired and revoked dashboard sessions",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -7)
			n, err := session.CleanupExpired(db, cutoff)
			if err != nil {
				cronLogger.Warn("account session cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("account session cleanup removed %d rows", n))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_app_sessions",
		Description: "delete expired and revoked client sessions",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			// Keep a day of history for the session listings.
			cutoff := time.Now().Add(-24 * time.Hour)
			n, err := appuser.CleanupExpiredSessions(ctx, db, cutoff)
			if err != nil {
				cronLogger.Warn("app session cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("app session cleanup removed %d rows", n))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "activity_retention",
		Description: "prune activity log entries older than the retention window",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -activityRetentionDays)
			n, err := activity.NewService(db).DeleteOlderThan(ctx, cutoff)
			if err != nil {
				cronLogger.Warn("activity retention failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("activity retention removed %d rows", n))
			return nil
		},
	})
}
