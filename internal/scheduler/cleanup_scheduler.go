package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/talentbase-backend/internal/app/service"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const purgeTimeout = time.Minute

// Purger removes expired pending registrations and reset tokens.
type Purger interface {
	PurgeExpired(ctx context.Context) (service.PurgeStats, error)
}

// CleanupScheduler purges expired identity records on a cron schedule
type CleanupScheduler struct {
	cron     *cron.Cron
	schedule string
	purger   Purger
}

func NewCleanupScheduler(purger Purger, schedule string) *CleanupScheduler {
	return &CleanupScheduler{
		cron:     cron.New(),
		schedule: schedule,
		purger:   purger,
	}
}

func (s *CleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for expired record cleanup", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cleanup scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce runs a single purge and reports what it removed.
func (s *CleanupScheduler) RunOnce(ctx context.Context) (service.PurgeStats, error) {
	stats, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		logger.Error("Failed to purge expired records", err)
		return stats, err
	}

	logger.Info("Purged expired records", map[string]interface{}{
		"pending_registrations": stats.PendingRegistrations,
		"credential_tokens":     stats.CredentialTokens,
	})
	return stats, nil
}

// Stop waits for a running purge to finish.
func (s *CleanupScheduler) Stop() {
	logger.Info("Stopping cleanup scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Cleanup scheduler stopped")
}
