package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry with quantity-tiered pricing.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU       string          `gorm:"column:sku;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;not null"`
	Unit      string          `gorm:"column:unit;not null;default:'each'"`
	MOQ       int             `gorm:"column:moq;not null;default:1"`
	BasePrice decimal.Decimal `gorm:"column:base_price;type:numeric(15,2);not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	Tiers     []PricingTier   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
