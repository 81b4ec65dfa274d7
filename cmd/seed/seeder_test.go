package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/catalog"
	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

func TestSeederIsRepeatable(t *testing.T) {
	client := dbtest.New(t)
	s := newSeeder(accounts.NewRepository(client.DB()), catalog.NewRepository(client.DB()))
	ctx := context.Background()

	first, err := s.Run(ctx)
	require.NoError(t, err)
	require.Len(t, first.Accounts, 3)
	require.Len(t, first.Products, 3)

	second, err := s.Run(ctx)
	require.NoError(t, err)
	require.Len(t, second.Accounts, 3)
	require.Empty(t, second.Products)

	for i := range first.Accounts {
		require.Equal(t, first.Accounts[i].ID, second.Accounts[i].ID)
	}
	require.EqualValues(t, 3, dbtest.Count(t, client, &models.Product{}))
	require.EqualValues(t, 3, dbtest.Count(t, client, &models.PricingTier{}))
}

func TestDemoProductsCarryValidTiers(t *testing.T) {
	for _, product := range demoProducts() {
		for _, tier := range product.Tiers {
			require.GreaterOrEqual(t, tier.MinQuantity, product.MOQ, product.SKU)
			require.True(t, tier.Price.LessThan(product.BasePrice), product.SKU)
		}
	}
}
