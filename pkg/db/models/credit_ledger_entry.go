package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/enums"
)

// CreditLedgerEntry records an immutable movement on an account's credit
// balance. EntrySeq numbers an account's entries from 1 in write order.
type CreditLedgerEntry struct {
	ID              uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	AccountID       uuid.UUID                   `gorm:"column:account_id;type:uuid;not null;index;uniqueIndex:idx_credit_ledger_account_seq,priority:1"`
	OrderID         *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	InvoiceID       *string                     `gorm:"column:invoice_id"`
	TransactionType enums.LedgerTransactionType `gorm:"column:transaction_type;type:ledger_transaction_type;not null"`
	Amount          decimal.Decimal             `gorm:"column:amount;type:numeric(15,2);not null"`
	BalanceAfter    decimal.Decimal             `gorm:"column:balance_after;type:numeric(15,2);not null"`
	Description     string                      `gorm:"column:description;not null;default:''"`
	EntrySeq        int64                       `gorm:"column:entry_seq;not null;uniqueIndex:idx_credit_ledger_account_seq,priority:2"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
