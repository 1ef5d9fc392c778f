package logging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gasspot/gasspot-backend/internal/models"
	"gorm.io/gorm"
)

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retentionDays. It stops when ctx is cancelled.
func StartCleanup(ctx context.Context, db *gorm.DB, retentionDays int, logger *slog.Logger) {
	if retentionDays <= 0 {
		logger.Info("log cleanup disabled", "retention_days", retentionDays)
		return
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := DeleteOlderThan(ctx, db, time.Now().AddDate(0, 0, -retentionDays))
				if err != nil {
					logger.Error("log cleanup failed", "action", "logs.cleanup", "error", err)
				} else if deleted > 0 {
					logger.Info("log cleanup completed", "action", "logs.cleanup", "deleted", deleted)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// DeleteOlderThan removes log rows recorded before cutoff.
func DeleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old system logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
