package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/ledger"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

type failingItemsRepo struct {
	orders.Repository
}

func (f failingItemsRepo) WithTx(tx *gorm.DB) orders.Repository {
	return failingItemsRepo{Repository: f.Repository.WithTx(tx)}
}

func (failingItemsRepo) CreateItems(context.Context, []models.OrderItem) error {
	return errors.New("disk full")
}

func TestCommitRejectsOrderAboveAvailableCredit(t *testing.T) {
	h := newHarness(t, nil)
	account := h.creditAccount(t)
	product := dbtest.SeedProduct(t, h.client, "PAL-1", 1, "100.00")

	_, err := h.coordinator.Commit(context.Background(), CommitInput{
		AccountID:    account.ID,
		Order:        assembledFor(product, 5, "100.00"),
		PaymentTerms: enums.PaymentTermsCreditNet30,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonCreditExceeded, pkgerrors.Reason(err))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Equal(t, "400.00", details["available_credit"])
	assert.Equal(t, "500.00", details["order_total"])

	assert.Zero(t, dbtest.Count(t, h.client, &models.Order{}))
	assert.Zero(t, dbtest.Count(t, h.client, &models.OrderItem{}))
	assert.Zero(t, dbtest.Count(t, h.client, &models.OutboxEvent{}))
	assert.EqualValues(t, 2, dbtest.Count(t, h.client, &models.CreditLedgerEntry{}))
}

func TestCommitCreditOrderAppendsLedger(t *testing.T) {
	h := newHarness(t, nil)
	account := h.creditAccount(t)
	product := dbtest.SeedProduct(t, h.client, "PAL-2", 1, "100.00")
	notes := "dock 4"

	result, err := h.coordinator.Commit(context.Background(), CommitInput{
		AccountID:    account.ID,
		Order:        assembledFor(product, 3, "100.00"),
		PaymentTerms: enums.PaymentTermsCreditNet60,
		Notes:        &notes,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.OrderNumber, "ORD-"))
	assert.Len(t, result.OrderNumber, len("ORD-")+26)
	assert.Equal(t, enums.OrderStatusPending, result.Status)

	var order models.Order
	require.NoError(t, h.client.DB().Preload("Items").First(&order, "id = ?", result.OrderID).Error)
	assert.Equal(t, "300.00", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	require.NotNil(t, order.Notes)
	assert.Equal(t, notes, *order.Notes)

	latest, err := ledger.NewRepository(h.client.DB()).Latest(context.Background(), account.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, enums.LedgerTransactionCreditPurchase, latest.TransactionType)
	assert.Equal(t, "900.00", latest.BalanceAfter.StringFixed(2))
	assert.Equal(t, "Order "+result.OrderNumber, latest.Description)
	require.NotNil(t, latest.OrderID)
	assert.Equal(t, result.OrderID, *latest.OrderID)

	var events []models.OutboxEvent
	require.NoError(t, h.client.DB().Order("created_at ASC").Find(&events).Error)
	require.Len(t, events, 2)
	types := []enums.OutboxEventType{events[0].EventType, events[1].EventType}
	assert.ElementsMatch(t, []enums.OutboxEventType{enums.EventOrderCreated, enums.EventCreditCharged}, types)
}

func TestCommitPayNowSkipsCreditCheck(t *testing.T) {
	h := newHarness(t, nil)
	account := h.creditAccount(t)
	product := dbtest.SeedProduct(t, h.client, "PAL-3", 1, "100.00")

	_, err := h.coordinator.Commit(context.Background(), CommitInput{
		AccountID:    account.ID,
		Order:        assembledFor(product, 50, "100.00"),
		PaymentTerms: enums.PaymentTermsPayNow,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, dbtest.Count(t, h.client, &models.Order{}))
	assert.EqualValues(t, 2, dbtest.Count(t, h.client, &models.CreditLedgerEntry{}))
	assert.EqualValues(t, 1, dbtest.Count(t, h.client, &models.OutboxEvent{}))
}

func TestCommitRollsBackWhenItemInsertFails(t *testing.T) {
	h := newHarness(t, nil)
	h.coordinator.orders = failingItemsRepo{Repository: orders.NewRepository(h.client.DB())}
	account := h.creditAccount(t)
	product := dbtest.SeedProduct(t, h.client, "PAL-4", 1, "10.00")

	_, err := h.coordinator.Commit(context.Background(), CommitInput{
		AccountID:    account.ID,
		Order:        assembledFor(product, 1, "10.00"),
		PaymentTerms: enums.PaymentTermsCreditNet30,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	assert.True(t, pkgerrors.MetadataFor(pkgerrors.CodePersistence).Retryable)

	assert.Zero(t, dbtest.Count(t, h.client, &models.Order{}))
	assert.Zero(t, dbtest.Count(t, h.client, &models.OrderItem{}))
	assert.Zero(t, dbtest.Count(t, h.client, &models.OutboxEvent{}))
	assert.EqualValues(t, 2, dbtest.Count(t, h.client, &models.CreditLedgerEntry{}))
}

func TestCommitValidation(t *testing.T) {
	h := newHarness(t, nil)
	account := h.creditAccount(t)
	product := dbtest.SeedProduct(t, h.client, "PAL-5", 1, "10.00")

	_, err := h.coordinator.Commit(context.Background(), CommitInput{
		AccountID:    account.ID,
		Order:        assembledFor(product, 1, "10.00"),
		PaymentTerms: "cash_on_delivery",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.coordinator.Commit(context.Background(), CommitInput{
		AccountID:    account.ID,
		Order:        &AssembledOrder{},
		PaymentTerms: enums.PaymentTermsPayNow,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.coordinator.Commit(context.Background(), CommitInput{
		AccountID:    uuid.New(),
		Order:        assembledFor(product, 1, "10.00"),
		PaymentTerms: enums.PaymentTermsPayNow,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestConcurrentCreditCommitsNeverExceedLimit(t *testing.T) {
	h := newHarness(t, nil)
	account := dbtest.SeedAccount(t, h.client, "1000.00")
	product := dbtest.SeedProduct(t, h.client, "PAL-6", 1, "150.00")

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.coordinator.Commit(context.Background(), CommitInput{
				AccountID:    account.ID,
				Order:        assembledFor(product, 1, "150.00"),
				PaymentTerms: enums.PaymentTermsCreditNet30,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case pkgerrors.Reason(err) == pkgerrors.ReasonCreditExceeded:
				rejected++
			default:
				t.Errorf("unexpected commit error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, committed)
	assert.Equal(t, attempts-6, rejected)

	balance, err := ledger.NewRepository(h.client.DB()).Balance(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "900.00", balance.StringFixed(2))

	latest, err := ledger.NewRepository(h.client.DB()).Latest(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, latest.BalanceAfter.Equal(balance))
}

func TestOrderNumbersAreUniqueAndOrdered(t *testing.T) {
	gen := NewOrderNumberGenerator("ORD")
	seen := make(map[string]struct{}, 500)
	prev := ""
	for i := 0; i < 500; i++ {
		n, err := gen.Next()
		require.NoError(t, err)
		_, dup := seen[n]
		require.False(t, dup, "duplicate order number %s", n)
		seen[n] = struct{}{}
		assert.Greater(t, n, prev)
		prev = n
	}
}
