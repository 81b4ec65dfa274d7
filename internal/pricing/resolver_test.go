package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

func intPtr(v int) *int { return &v }

func tier(min int, max *int, price string) models.PricingTier {
	return models.PricingTier{
		ID:          uuid.New(),
		MinQuantity: min,
		MaxQuantity: max,
		Price:       decimal.RequireFromString(price),
	}
}

func sampleProduct(moq int, tiers ...models.PricingTier) models.Product {
	return models.Product{
		ID:        uuid.New(),
		SKU:       "SKU-1",
		Name:      "Widget",
		MOQ:       moq,
		BasePrice: decimal.RequireFromString("10.00"),
		Tiers:     tiers,
	}
}

func TestResolveTierTable(t *testing.T) {
	low := tier(10, intPtr(49), "9.00")
	high := tier(50, nil, "8.00")
	product := sampleProduct(1, low, high)

	cases := []struct {
		qty    int
		price  string
		tierID *uuid.UUID
	}{
		{qty: 5, price: "10.00"},
		{qty: 10, price: "9.00", tierID: &low.ID},
		{qty: 49, price: "9.00", tierID: &low.ID},
		{qty: 50, price: "8.00", tierID: &high.ID},
		{qty: 60, price: "8.00", tierID: &high.ID},
		{qty: 200, price: "8.00", tierID: &high.ID},
	}

	for _, tc := range cases {
		quote, err := Resolve(product, tc.qty)
		require.NoError(t, err)
		assert.Truef(t, quote.UnitPrice.Equal(decimal.RequireFromString(tc.price)), "qty %d: expected %s got %s", tc.qty, tc.price, quote.UnitPrice)
		assert.Equal(t, tc.tierID, quote.TierID(), "qty %d", tc.qty)
	}
}

func TestResolveLineTotalIsExact(t *testing.T) {
	product := sampleProduct(1, tier(10, intPtr(49), "9.00"), tier(50, nil, "8.00"))

	quote, err := Resolve(product, 60)
	require.NoError(t, err)
	assert.Equal(t, "480.00", quote.LineTotal(60).StringFixed(2))

	product.BasePrice = decimal.RequireFromString("0.10")
	product.Tiers = nil
	quote, err = Resolve(product, 3)
	require.NoError(t, err)
	assert.Equal(t, "0.30", quote.LineTotal(3).StringFixed(2))
}

func TestResolveMOQBoundary(t *testing.T) {
	product := sampleProduct(12)

	_, err := Resolve(product, 11)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePolicy, typed.Code())
	assert.Equal(t, pkgerrors.ReasonBelowMOQ, pkgerrors.Reason(err))
	details := typed.Details().(map[string]any)
	assert.Equal(t, product.ID.String(), details["product_id"])
	assert.Equal(t, "SKU-1", details["sku"])
	assert.Equal(t, 12, details["moq"])

	quote, err := Resolve(product, 12)
	require.NoError(t, err)
	assert.Equal(t, "10.00", quote.UnitPrice.StringFixed(2))
}

func TestSelectTierTieBreakIsDeterministic(t *testing.T) {
	bounded := tier(10, intPtr(20), "9.50")
	open := tier(10, nil, "9.00")
	narrow := tier(10, intPtr(15), "9.75")

	forward := SelectTier(12, []models.PricingTier{open, bounded, narrow})
	reverse := SelectTier(12, []models.PricingTier{narrow, bounded, open})
	require.NotNil(t, forward)
	require.NotNil(t, reverse)
	assert.Equal(t, narrow.ID, forward.ID)
	assert.Equal(t, forward.ID, reverse.ID)

	// past the bounded ranges only the open tier covers the quantity
	got := SelectTier(30, []models.PricingTier{bounded, narrow, open})
	require.NotNil(t, got)
	assert.Equal(t, open.ID, got.ID)
}

func TestSelectTierEqualRangesPreferLowerPrice(t *testing.T) {
	a := tier(5, nil, "4.00")
	b := tier(5, nil, "3.50")
	got := SelectTier(7, []models.PricingTier{a, b})
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
}

func TestSelectTierSkipsRangesThatEndBeforeQty(t *testing.T) {
	got := SelectTier(100, []models.PricingTier{tier(10, intPtr(49), "9.00")})
	assert.Nil(t, got)
}
