package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
)

// SeedAccount inserts an approved retailer with the given credit limit.
func SeedAccount(t testing.TB, client *db.Client, creditLimit string) *models.RetailerAccount {
	t.Helper()
	account := &models.RetailerAccount{
		BusinessName: "Test Retailer",
		Email:        uuid.NewString() + "@retail.test",
		Role:         enums.AccountRoleRetailer,
		Status:       enums.AccountStatusApproved,
		CreditLimit:  decimal.RequireFromString(creditLimit),
	}
	if err := client.DB().Create(account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

// SeedProduct inserts an active product with the supplied tiers.
func SeedProduct(t testing.TB, client *db.Client, sku string, moq int, basePrice string, tiers ...models.PricingTier) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:       sku,
		Name:      "Product " + sku,
		Unit:      "each",
		MOQ:       moq,
		BasePrice: decimal.RequireFromString(basePrice),
		IsActive:  true,
		Tiers:     tiers,
	}
	if err := client.DB().Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedLedgerEntry appends a raw ledger row.
func SeedLedgerEntry(t testing.TB, client *db.Client, accountID uuid.UUID, kind enums.LedgerTransactionType, amount, balanceAfter string) *models.CreditLedgerEntry {
	t.Helper()
	entry := &models.CreditLedgerEntry{
		AccountID:       accountID,
		TransactionType: kind,
		Amount:          decimal.RequireFromString(amount),
		BalanceAfter:    decimal.RequireFromString(balanceAfter),
		Description:     "seed",
	}
	var last int64
	if err := client.DB().Model(&models.CreditLedgerEntry{}).
		Select("COALESCE(MAX(entry_seq), 0)").
		Where("account_id = ?", accountID).
		Row().Scan(&last); err != nil {
		t.Fatalf("next ledger seq: %v", err)
	}
	entry.EntrySeq = last + 1
	if err := client.DB().Create(entry).Error; err != nil {
		t.Fatalf("seed ledger entry: %v", err)
	}
	return entry
}

// Count returns the number of rows stored for model.
func Count(t testing.TB, client *db.Client, model any) int64 {
	t.Helper()
	var n int64
	if err := client.DB().Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
