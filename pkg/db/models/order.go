package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/enums"
)

// Order is the header row written by a successful commit.
type Order struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber    string             `gorm:"column:order_number;not null;uniqueIndex"`
	AccountID      uuid.UUID          `gorm:"column:account_id;type:uuid;not null;index"`
	Status         enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentTerms   enums.PaymentTerms `gorm:"column:payment_terms;type:payment_terms;not null"`
	Subtotal       decimal.Decimal    `gorm:"column:subtotal;type:numeric(15,2);not null"`
	TaxAmount      decimal.Decimal    `gorm:"column:tax_amount;type:numeric(15,2);not null;default:0"`
	ShippingAmount decimal.Decimal    `gorm:"column:shipping_amount;type:numeric(15,2);not null;default:0"`
	TotalAmount    decimal.Decimal    `gorm:"column:total_amount;type:numeric(15,2);not null"`
	Notes          *string            `gorm:"column:notes"`
	Items          []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
