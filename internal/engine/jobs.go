package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/sampark/sampark/internal/database"
)

const pendingDigestJobID = "pending_digest"

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	if e.cfg.Digest == nil || !e.cfg.Digest.Enabled {
		log.Debug("Pending digest is disabled")
		return nil
	}

	if err := e.scheduler.AddCronJob(
		pendingDigestJobID,
		"Pending Registrations Digest",
		"Reminds admins about registrations awaiting review",
		e.cfg.Digest.Schedule,
		e.runPendingDigest,
	); err != nil {
		return fmt.Errorf("failed to add pending digest job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}

// runPendingDigest pushes the names of pending registrations to admins.
func (e *Engine) runPendingDigest(ctx context.Context) error {
	pending, err := e.db.GetUsersByStatus(ctx, database.UserStatusPending)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Debug("No pending registrations")
		return nil
	}

	names := lo.Map(pending, func(u database.User, _ int) string {
		return fmt.Sprintf("%s (%s)", u.Name, u.RegistrationNumber)
	})

	if e.notifier == nil {
		log.Info("Registrations awaiting review", "count", len(names))
		return nil
	}
	return e.notifier.SendPendingDigest(ctx, names, e.adminURL())
}
