package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/wholesale-backend/internal/repo"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

// Repository persists retailer accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.RetailerAccount) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error)
	FindByEmail(ctx context.Context, email string) (*models.RetailerAccount, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error)
	UpdateCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) error
}

type repository struct {
	repo.Base
}

// NewRepository returns an account repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, account *models.RetailerAccount) error {
	return repo.Classify(r.DB(ctx).Create(account).Error, "")
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error) {
	var account models.RetailerAccount
	if err := r.DB(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, repo.Classify(err, "account not found")
	}
	return &account, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.RetailerAccount, error) {
	var account models.RetailerAccount
	if err := r.DB(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, repo.Classify(err, "account not found")
	}
	return &account, nil
}

// LockByID loads the account with a row lock held until the surrounding
// transaction ends. Dialects without row locks ignore the clause.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error) {
	var account models.RetailerAccount
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, repo.Classify(err, "account not found")
	}
	return &account, nil
}

func (r *repository) UpdateCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) error {
	res := r.DB(ctx).Model(&models.RetailerAccount{}).
		Where("id = ?", id).
		Update("credit_limit", limit)
	if res.Error != nil {
		return repo.Classify(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return repo.Classify(gorm.ErrRecordNotFound, "account not found")
	}
	return nil
}
