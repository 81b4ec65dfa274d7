package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingTier overrides the base price for quantities in [MinQuantity, MaxQuantity].
// A nil MaxQuantity leaves the range open-ended.
type PricingTier struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	MinQuantity int             `gorm:"column:min_quantity;not null"`
	MaxQuantity *int            `gorm:"column:max_quantity"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(15,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Covers reports whether qty falls inside the tier's range.
func (t PricingTier) Covers(qty int) bool {
	if qty < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || qty <= *t.MaxQuantity
}
