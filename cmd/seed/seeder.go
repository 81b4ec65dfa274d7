package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

type accountStore interface {
	Create(ctx context.Context, account *models.RetailerAccount) error
	FindByEmail(ctx context.Context, email string) (*models.RetailerAccount, error)
}

type productStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
}

type seedResult struct {
	Accounts []models.RetailerAccount
	Products []models.Product
}

type seeder struct {
	accounts accountStore
	products productStore
}

func newSeeder(accounts accountStore, products productStore) *seeder {
	return &seeder{accounts: accounts, products: products}
}

// Run inserts the demo catalog and accounts. Accounts that already exist are
// reused; products whose SKU is taken are skipped.
func (s *seeder) Run(ctx context.Context) (seedResult, error) {
	var result seedResult
	for _, account := range demoAccounts() {
		existing, err := s.accounts.FindByEmail(ctx, account.Email)
		switch {
		case err == nil:
			result.Accounts = append(result.Accounts, *existing)
			continue
		case !isCode(err, pkgerrors.CodeNotFound):
			return result, fmt.Errorf("lookup %s: %w", account.Email, err)
		}
		if err := s.accounts.Create(ctx, &account); err != nil {
			return result, fmt.Errorf("create account %s: %w", account.Email, err)
		}
		result.Accounts = append(result.Accounts, account)
	}

	for _, product := range demoProducts() {
		if err := s.products.CreateProduct(ctx, &product); err != nil {
			if isCode(err, pkgerrors.CodeConflict) {
				continue
			}
			return result, fmt.Errorf("create product %s: %w", product.SKU, err)
		}
		result.Products = append(result.Products, product)
	}
	return result, nil
}

func isCode(err error, code pkgerrors.Code) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == code
}

func demoAccounts() []models.RetailerAccount {
	return []models.RetailerAccount{
		{
			BusinessName: "Wholesale Ops",
			Email:        "admin@wholesale.local",
			Role:         enums.AccountRoleAdmin,
			Status:       enums.AccountStatusApproved,
		},
		{
			BusinessName: "Corner Market",
			Email:        "buyer@cornermarket.local",
			Role:         enums.AccountRoleRetailer,
			Status:       enums.AccountStatusApproved,
			CreditLimit:  decimal.NewFromInt(5000),
		},
		{
			BusinessName: "Harbor Provisions",
			Email:        "orders@harbor.local",
			Role:         enums.AccountRoleRetailer,
			Status:       enums.AccountStatusPending,
			CreditLimit:  decimal.NewFromInt(1000),
		},
	}
}

func demoProducts() []models.Product {
	upTo := func(n int) *int { return &n }
	return []models.Product{
		{
			SKU:       "COF-ARB-1KG",
			Name:      "Arabica beans 1kg",
			Unit:      "bag",
			MOQ:       10,
			BasePrice: decimal.RequireFromString("18.50"),
			IsActive:  true,
			Tiers: []models.PricingTier{
				{MinQuantity: 50, MaxQuantity: upTo(199), Price: decimal.RequireFromString("16.75")},
				{MinQuantity: 200, Price: decimal.RequireFromString("15.20")},
			},
		},
		{
			SKU:       "CUP-PAPER-12OZ",
			Name:      "Paper cups 12oz (sleeve of 50)",
			Unit:      "sleeve",
			MOQ:       20,
			BasePrice: decimal.RequireFromString("4.10"),
			IsActive:  true,
			Tiers: []models.PricingTier{
				{MinQuantity: 100, Price: decimal.RequireFromString("3.60")},
			},
		},
		{
			SKU:       "SYR-VAN-750",
			Name:      "Vanilla syrup 750ml",
			Unit:      "bottle",
			MOQ:       6,
			BasePrice: decimal.RequireFromString("7.95"),
			IsActive:  true,
		},
	}
}
