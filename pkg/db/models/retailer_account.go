package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/enums"
)

// RetailerAccount is a business customer allowed to place wholesale orders.
type RetailerAccount struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BusinessName string              `gorm:"column:business_name;not null"`
	Email        string              `gorm:"column:email;not null;uniqueIndex"`
	Role         enums.AccountRole   `gorm:"column:role;type:account_role;not null;default:'retailer'"`
	Status       enums.AccountStatus `gorm:"column:status;type:account_status;not null;default:'pending'"`
	CreditLimit  decimal.Decimal     `gorm:"column:credit_limit;type:numeric(15,2);not null;default:0"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsApproved reports whether the account may place orders.
func (a RetailerAccount) IsApproved() bool {
	return a.Status == enums.AccountStatusApproved
}
