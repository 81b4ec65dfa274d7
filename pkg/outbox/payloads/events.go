package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once an order commit succeeds.
type OrderCreatedEvent struct {
	OrderID      uuid.UUID          `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	AccountID    uuid.UUID          `json:"account_id"`
	PaymentTerms enums.PaymentTerms `json:"payment_terms"`
	ItemCount    int                `json:"item_count"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
}

// OrderStatusChangedEvent is emitted when an admin moves an order through its lifecycle.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	AccountID   uuid.UUID         `json:"account_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
}

// CreditChargedEvent is emitted when a credit order is appended to the ledger.
type CreditChargedEvent struct {
	EntryID      uuid.UUID       `json:"entry_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// CreditPaymentRecordedEvent is emitted when a payment reduces the outstanding balance.
type CreditPaymentRecordedEvent struct {
	EntryID      uuid.UUID       `json:"entry_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	InvoiceID    *string         `json:"invoice_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}
