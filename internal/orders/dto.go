package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
)

// ListFilter narrows order listings. A nil AccountID lists every account.
type ListFilter struct {
	AccountID *uuid.UUID
	Status    *enums.OrderStatus
}

// Viewer is the authenticated caller reading an order.
type Viewer struct {
	AccountID uuid.UUID
	Role      enums.AccountRole
}

// IsAdmin reports whether the viewer may read any account's orders.
func (v Viewer) IsAdmin() bool {
	return v.Role == enums.AccountRoleAdmin
}

// OrderItemDTO is a committed line as returned by the API.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TierApplied *uuid.UUID      `json:"tier_applied,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the full order view.
type OrderDTO struct {
	ID             uuid.UUID          `json:"id"`
	OrderNumber    string             `json:"order_number"`
	AccountID      uuid.UUID          `json:"account_id"`
	Status         enums.OrderStatus  `json:"status"`
	PaymentTerms   enums.PaymentTerms `json:"payment_terms"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	ShippingAmount decimal.Decimal    `json:"shipping_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Notes          *string            `json:"notes,omitempty"`
	Items          []OrderItemDTO     `json:"items,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// OrderList wraps one page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ReorderItem pairs a previously ordered line with the product's current terms.
type ReorderItem struct {
	ProductID        uuid.UUID       `json:"product_id"`
	SKU              string          `json:"sku"`
	ProductName      string          `json:"product_name"`
	PreviousQuantity int             `json:"previous_quantity"`
	MOQ              int             `json:"moq"`
	BasePrice        decimal.Decimal `json:"base_price"`
}

// ReorderList is the result of looking up the last reorderable order.
type ReorderList struct {
	OrderID     uuid.UUID     `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	Items       []ReorderItem `json:"items"`
}

// NewOrderDTO maps a persisted order (with items loaded) to its API view.
func NewOrderDTO(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TierApplied: item.TierApplied,
			Subtotal:    item.Subtotal,
		})
	}
	return OrderDTO{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		AccountID:      order.AccountID,
		Status:         order.Status,
		PaymentTerms:   order.PaymentTerms,
		Subtotal:       order.Subtotal,
		TaxAmount:      order.TaxAmount,
		ShippingAmount: order.ShippingAmount,
		TotalAmount:    order.TotalAmount,
		Notes:          order.Notes,
		Items:          items,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
