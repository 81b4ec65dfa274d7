package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

// Quote is the resolved unit price for a product at a given quantity.
type Quote struct {
	UnitPrice decimal.Decimal
	Tier      *models.PricingTier
}

// TierID returns the applied tier id, or nil when the base price was used.
func (q Quote) TierID() *uuid.UUID {
	if q.Tier == nil {
		return nil
	}
	id := q.Tier.ID
	return &id
}

// LineTotal returns unit price times quantity, rounded to cents.
func (q Quote) LineTotal(qty int) decimal.Decimal {
	return q.UnitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// Resolve returns the unit price for qty units of product. Quantities below the
// product MOQ are rejected with a below_moq policy violation.
func Resolve(product models.Product, qty int) (Quote, error) {
	if err := CheckMOQ(product, qty); err != nil {
		return Quote{}, err
	}

	tier := SelectTier(qty, product.Tiers)
	if tier == nil {
		return Quote{UnitPrice: product.BasePrice.Round(2)}, nil
	}
	return Quote{UnitPrice: tier.Price.Round(2), Tier: tier}, nil
}

// CheckMOQ enforces the minimum order quantity for product.
func CheckMOQ(product models.Product, qty int) error {
	if qty >= product.MOQ {
		return nil
	}
	return pkgerrors.Policy(
		pkgerrors.ReasonBelowMOQ,
		"quantity is below the minimum order quantity",
		map[string]any{
			"product_id": product.ID.String(),
			"sku":        product.SKU,
			"moq":        product.MOQ,
			"quantity":   qty,
		},
	)
}

// SelectTier picks the covering tier with the greatest MinQuantity. Ties are
// broken by preferring a bounded range, then the narrower range, then the lower
// price, then the lower id, so the result never depends on input order.
func SelectTier(qty int, tiers []models.PricingTier) *models.PricingTier {
	var selected *models.PricingTier
	for i := range tiers {
		tier := tiers[i]
		if !tier.Covers(qty) {
			continue
		}
		if selected == nil || preferTier(tier, *selected) {
			copy := tier
			selected = &copy
		}
	}
	return selected
}

func preferTier(candidate, current models.PricingTier) bool {
	if candidate.MinQuantity != current.MinQuantity {
		return candidate.MinQuantity > current.MinQuantity
	}
	switch {
	case candidate.MaxQuantity != nil && current.MaxQuantity == nil:
		return true
	case candidate.MaxQuantity == nil && current.MaxQuantity != nil:
		return false
	case candidate.MaxQuantity != nil && *candidate.MaxQuantity != *current.MaxQuantity:
		return *candidate.MaxQuantity < *current.MaxQuantity
	}
	if cmp := candidate.Price.Cmp(current.Price); cmp != 0 {
		return cmp < 0
	}
	return candidate.ID.String() < current.ID.String()
}
