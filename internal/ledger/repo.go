package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/repo"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
)

// Repository manages the append-only credit ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.CreditLedgerEntry) error
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	Latest(ctx context.Context, accountID uuid.UUID) (*models.CreditLedgerEntry, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditLedgerEntry, error)
	AccountIDsWithEntries(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// Append stamps entry with the account's next sequence number and inserts it.
// Callers hold the account lock; the unique (account_id, entry_seq) index
// rejects any writer that did not.
func (r *repository) Append(ctx context.Context, entry *models.CreditLedgerEntry) error {
	next, err := nextSeq(r.DB(ctx), entry.AccountID)
	if err != nil {
		return repo.Classify(err, "")
	}
	entry.EntrySeq = next
	return repo.Classify(r.DB(ctx).Create(entry).Error, "")
}

// nextSeq returns the sequence number the account's next entry takes.
func nextSeq(db *gorm.DB, accountID uuid.UUID) (int64, error) {
	var last int64
	err := db.Model(&models.CreditLedgerEntry{}).
		Select("COALESCE(MAX(entry_seq), 0)").
		Where("account_id = ?", accountID).
		Row().
		Scan(&last)
	return last + 1, err
}

// Balance sums purchases minus payments. Adjustments do not move the balance.
func (r *repository) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.DB(ctx).
		Model(&models.CreditLedgerEntry{}).
		Select(
			"COALESCE(SUM(CASE WHEN transaction_type = ? THEN amount WHEN transaction_type = ? THEN -amount ELSE 0 END), 0)",
			enums.LedgerTransactionCreditPurchase,
			enums.LedgerTransactionPayment,
		).
		Where("account_id = ?", accountID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, repo.Classify(err, "")
	}
	return total.Round(2), nil
}

// Latest returns the account's highest-sequence entry, or nil when it has none.
func (r *repository) Latest(ctx context.Context, accountID uuid.UUID) (*models.CreditLedgerEntry, error) {
	var entry models.CreditLedgerEntry
	err := r.DB(ctx).
		Where("account_id = ?", accountID).
		Order("entry_seq DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, repo.Classify(err, "")
	}
	return &entry, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditLedgerEntry, error) {
	var entries []models.CreditLedgerEntry
	query := r.DB(ctx).
		Where("account_id = ?", accountID).
		Order("entry_seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, repo.Classify(err, "")
	}
	return entries, nil
}

func (r *repository) AccountIDsWithEntries(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.CreditLedgerEntry{}).
		Distinct("account_id").
		Pluck("account_id", &ids).Error
	if err != nil {
		return nil, repo.Classify(err, "")
	}
	return ids, nil
}
