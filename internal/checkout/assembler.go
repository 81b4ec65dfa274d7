package checkout

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/internal/pricing"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

// MaxLineQuantity is the largest quantity an order_items row can hold.
const MaxLineQuantity = math.MaxInt32

// ProductCatalog loads orderable products with their tiers.
type ProductCatalog interface {
	FindForOrdering(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CartLine is one requested product and quantity.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ItemDraft is a priced line ready to be persisted as an order item.
type ItemDraft struct {
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TierApplied *uuid.UUID      `json:"tier_applied,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// AssembledOrder is a fully priced cart. Tax and shipping are always zero.
type AssembledOrder struct {
	Items          []ItemDraft     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	Total          decimal.Decimal `json:"total"`
}

// LineResult is one line of a cart preview. Exactly one of Item or Error is set.
type LineResult struct {
	Line  int        `json:"line"`
	Item  *ItemDraft `json:"item,omitempty"`
	Error *LineError `json:"error,omitempty"`
}

// LineError describes why a previewed line cannot be ordered.
type LineError struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
	Details any            `json:"details,omitempty"`
}

// CartPreview prices every line it can and reports the others.
type CartPreview struct {
	Lines    []LineResult    `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
	Valid    bool            `json:"valid"`
}

// Assembler prices carts against the catalog.
type Assembler struct {
	catalog ProductCatalog
}

// NewAssembler returns an assembler reading products from catalog.
func NewAssembler(catalog ProductCatalog) (*Assembler, error) {
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	return &Assembler{catalog: catalog}, nil
}

// Assemble prices every line in order and stops at the first failure.
func (a *Assembler) Assemble(ctx context.Context, lines []CartLine) (*AssembledOrder, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	out := &AssembledOrder{
		Items:          make([]ItemDraft, 0, len(lines)),
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		ShippingAmount: decimal.Zero,
	}
	for i, line := range lines {
		item, err := a.priceLine(ctx, i, line)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *item)
		out.Subtotal = out.Subtotal.Add(item.Subtotal)
	}
	out.Subtotal = out.Subtotal.Round(2)
	out.Total = out.Subtotal.Add(out.TaxAmount).Add(out.ShippingAmount).Round(2)
	return out, nil
}

// PriceLine prices a single line without assembling an order.
func (a *Assembler) PriceLine(ctx context.Context, line CartLine) (*ItemDraft, error) {
	return a.priceLine(ctx, 0, line)
}

// Preview prices the whole cart, collecting per-line errors. Storage failures
// still abort the preview.
func (a *Assembler) Preview(ctx context.Context, lines []CartLine) (*CartPreview, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}

	out := &CartPreview{Lines: make([]LineResult, 0, len(lines)), Subtotal: decimal.Zero, Valid: true}
	for i, line := range lines {
		item, err := a.priceLine(ctx, i, line)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() == pkgerrors.CodePersistence {
				return nil, err
			}
			out.Valid = false
			out.Lines = append(out.Lines, LineResult{
				Line:  i,
				Error: &LineError{Code: typed.Code(), Message: typed.Message(), Details: typed.Details()},
			})
			continue
		}
		out.Subtotal = out.Subtotal.Add(item.Subtotal)
		out.Lines = append(out.Lines, LineResult{Line: i, Item: item})
	}
	out.Subtotal = out.Subtotal.Round(2)
	out.Total = out.Subtotal
	return out, nil
}

func (a *Assembler) priceLine(ctx context.Context, index int, line CartLine) (*ItemDraft, error) {
	if line.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required").
			WithDetails(map[string]any{"line": index})
	}
	if line.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"line": index, "quantity": line.Quantity})
	}
	if line.Quantity > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity is too large").
			WithDetails(map[string]any{"line": index, "quantity": line.Quantity, "max_quantity": MaxLineQuantity})
	}

	product, err := a.catalog.FindForOrdering(ctx, line.ProductID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found").
				WithDetails(map[string]any{"line": index, "product_id": line.ProductID.String()})
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load product failed")
		}
		return nil, err
	}

	quote, err := pricing.Resolve(*product, line.Quantity)
	if err != nil {
		return nil, err
	}
	return &ItemDraft{
		ProductID:   product.ID,
		SKU:         product.SKU,
		ProductName: product.Name,
		Quantity:    line.Quantity,
		UnitPrice:   quote.UnitPrice,
		TierApplied: quote.TierID(),
		Subtotal:    quote.LineTotal(line.Quantity),
	}, nil
}
