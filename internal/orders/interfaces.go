package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/pagination"
)

// Repository persists order headers and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error)
	LatestReorderable(ctx context.Context, accountID uuid.UUID) (*models.Order, error)
}

// ProductReader resolves the current catalog state of reordered products.
type ProductReader interface {
	FindManyForOrdering(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}
