package cron

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultOutboxAttempts  = 10
	defaultBacklogWarn     = 1000
)

type outboxRetentionRepo interface {
	Purge(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
	CountPending(ctx context.Context, tx *gorm.DB, maxAttempts int) (int64, error)
}

// OutboxRetentionJobParams configure outbox cleanup. MaxAttempts must match
// the publisher's ceiling: rows at or above it are parked and eligible for
// deletion once older than Retention.
type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxRetentionRepo
	Retention   time.Duration
	MaxAttempts int
	BacklogWarn int64
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil || params.DB == nil || params.Repository == nil {
		return nil, errors.New("outbox retention job: logger, db and repository are required")
	}
	return &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		retention:   cmp.Or(max(params.Retention, 0), defaultOutboxRetention),
		maxAttempts: cmp.Or(max(params.MaxAttempts, 0), defaultOutboxAttempts),
		backlogWarn: cmp.Or(max(params.BacklogWarn, 0), defaultBacklogWarn),
		now:         time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxRetentionRepo
	retention   time.Duration
	maxAttempts int
	backlogWarn int64
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes old published and parked rows, then reports how many rows are
// still waiting for the publisher. A large backlog is logged as a warning
// since it usually means the publisher is down.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted, pending int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if deleted, err = j.repo.Purge(ctx, tx, cutoff, j.maxAttempts); err != nil {
			return err
		}
		pending, err = j.repo.CountPending(ctx, tx, j.maxAttempts)
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}

	ctx = j.logg.WithFields(ctx, map[string]any{"cutoff": cutoff, "rows_deleted": deleted, "pending": pending})
	if pending < j.backlogWarn {
		j.logg.Info(ctx, "outbox retention complete")
		return nil
	}
	j.logg.Warn(ctx, "outbox backlog above threshold")
	return nil
}
