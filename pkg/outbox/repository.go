package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

// last_error is capped so one pathological message cannot bloat the table.
const maxErrorLength = 1024

// Repository stores outbox rows. Every method except Insert also works on
// the base handle when tx is nil.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert requires the caller's transaction: an event must commit together
// with the change it describes.
func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("outbox insert requires a transaction")
	}
	return tx.Create(&event).Error
}

func (r *Repository) pending(tx *gorm.DB, maxAttempts int) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts)
}

// ClaimBatch locks the oldest limit pending rows. SKIP LOCKED lets several
// relays drain the table without blocking on each other's rows.
func (r *Repository) ClaimBatch(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.pending(tx, maxAttempts).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Order("created_at, id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(tx *gorm.DB, id uuid.UUID) error {
	return r.update(tx, id, map[string]any{"published_at": time.Now().UTC()})
}

// RecordFailure keeps the row pending with one more attempt counted.
func (r *Repository) RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error {
	return r.update(tx, id, map[string]any{
		"last_error":    clip(cause),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// Park sets attempt_count to terminalAttempts, which takes the row out of
// ClaimBatch for good while keeping it around for inspection.
func (r *Repository) Park(tx *gorm.DB, id uuid.UUID, cause error, terminalAttempts int) error {
	return r.update(tx, id, map[string]any{
		"last_error":    clip(cause),
		"attempt_count": terminalAttempts,
	})
}

func (r *Repository) update(tx *gorm.DB, id uuid.UUID, values map[string]any) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(values).Error
}

// CountPending is the relay backlog.
func (r *Repository) CountPending(ctx context.Context, tx *gorm.DB, maxAttempts int) (int64, error) {
	var n int64
	err := r.pending(tx, maxAttempts).WithContext(ctx).Count(&n).Error
	return n, err
}

// Purge deletes rows published before cutoff and parked rows created before
// cutoff. Rows still being retried are never removed.
func (r *Repository) Purge(ctx context.Context, tx *gorm.DB, cutoff time.Time, parkedAttempts int) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Where("published_at < ?", cutoff).
		Or("published_at IS NULL AND created_at < ? AND attempt_count >= ?", cutoff, parkedAttempts).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func clip(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength]
	}
	return msg
}
