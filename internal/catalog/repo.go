package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/pricing"
	"github.com/angelmondragon/wholesale-backend/internal/repo"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

// Repository reads and writes catalog products together with their tiers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForOrdering(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindManyForOrdering(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a catalog repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// FindForOrdering loads an orderable product and its tiers. Inactive products
// are reported as not found.
func (r *repository) FindForOrdering(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("Tiers", tiersByMinQuantity).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, repo.Classify(err, "product not found")
	}
	return &product, nil
}

func (r *repository) FindManyForOrdering(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	err := r.DB(ctx).
		Preload("Tiers", tiersByMinQuantity).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, repo.Classify(err, "")
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func tiersByMinQuantity(tx *gorm.DB) *gorm.DB {
	return tx.Order("min_quantity ASC")
}

// ListActive returns every orderable product by SKU, tiers ascending.
func (r *repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Preload("Tiers", tiersByMinQuantity).
		Where("is_active = ?", true).
		Order("sku ASC").
		Find(&products).Error
	if err != nil {
		return nil, repo.Classify(err, "")
	}
	return products, nil
}

// CreateProduct validates the tier table and inserts the product with its tiers.
func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if product.SKU == "" || product.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if product.MOQ < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "moq must be at least 1")
	}
	if !product.BasePrice.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}
	if err := pricing.ValidateTiers(product.Tiers); err != nil {
		return err
	}

	err := r.DB(ctx).Create(product).Error
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already exists").
			WithDetails(map[string]any{"sku": product.SKU})
	}
	return repo.Classify(err, "")
}
