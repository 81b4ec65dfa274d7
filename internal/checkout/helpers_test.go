package checkout

import (
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/catalog"
	"github.com/angelmondragon/wholesale-backend/internal/ledger"
	"github.com/angelmondragon/wholesale-backend/internal/lock"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
)

type harness struct {
	client      *db.Client
	registry    *prometheus.Registry
	coordinator *Coordinator
	assembler   *Assembler
	service     Service
}

func newHarness(t *testing.T, ordersRepo orders.Repository) *harness {
	t.Helper()
	client := dbtest.New(t)
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(registry)

	if ordersRepo == nil {
		ordersRepo = orders.NewRepository(client.DB())
	}
	coordinator, err := NewCoordinator(CoordinatorParams{
		DB:       client,
		Accounts: accounts.NewRepository(client.DB()),
		Ledger:   ledger.NewRepository(client.DB()),
		Orders:   ordersRepo,
		Locker:   lock.NewLocal(),
		Outbox:   outbox.NewService(outbox.NewRepository(client.DB()), logg),
		Numbers:  NewOrderNumberGenerator("ORD"),
		Metrics:  m,
		Logger:   logg,
	})
	require.NoError(t, err)

	assembler, err := NewAssembler(catalog.NewRepository(client.DB()))
	require.NoError(t, err)

	svc, err := NewService(assembler, coordinator, m)
	require.NoError(t, err)

	return &harness{
		client:      client,
		registry:    registry,
		coordinator: coordinator,
		assembler:   assembler,
		service:     svc,
	}
}

// creditAccount seeds limit 1000 with 800 purchased and 200 paid, leaving 400 available.
func (h *harness) creditAccount(t *testing.T) *models.RetailerAccount {
	t.Helper()
	account := dbtest.SeedAccount(t, h.client, "1000.00")
	dbtest.SeedLedgerEntry(t, h.client, account.ID, enums.LedgerTransactionCreditPurchase, "800.00", "800.00")
	dbtest.SeedLedgerEntry(t, h.client, account.ID, enums.LedgerTransactionPayment, "200.00", "600.00")
	return account
}

func assembledFor(product *models.Product, qty int, unitPrice string) *AssembledOrder {
	price := decimal.RequireFromString(unitPrice)
	subtotal := price.Mul(decimal.NewFromInt(int64(qty))).Round(2)
	return &AssembledOrder{
		Items: []ItemDraft{{
			ProductID:   product.ID,
			SKU:         product.SKU,
			ProductName: product.Name,
			Quantity:    qty,
			UnitPrice:   price,
			Subtotal:    subtotal,
		}},
		Subtotal:       subtotal,
		TaxAmount:      decimal.Zero,
		ShippingAmount: decimal.Zero,
		Total:          subtotal,
	}
}

func intPtr(v int) *int { return &v }

func mustDecimal(v string) decimal.Decimal { return decimal.RequireFromString(v) }
