package ledger

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/lock"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
)

func newTestService(t *testing.T, client *db.Client, emitter outbox.Emitter) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "ledger-test", Output: io.Discard})
	if emitter == nil {
		emitter = outbox.NewService(outbox.NewRepository(client.DB()), logg)
	}
	svc, err := NewService(ServiceParams{
		DB:       client,
		Ledger:   NewRepository(client.DB()),
		Accounts: accounts.NewRepository(client.DB()),
		Locker:   lock.NewLocal(),
		Outbox:   emitter,
		Logger:   logg,
	})
	require.NoError(t, err)
	return svc
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox down")
}

func TestEvaluatorSummary(t *testing.T) {
	client := dbtest.New(t)
	account := dbtest.SeedAccount(t, client, "1000.00")
	dbtest.SeedLedgerEntry(t, client, account.ID, enums.LedgerTransactionCreditPurchase, "800.00", "800.00")
	dbtest.SeedLedgerEntry(t, client, account.ID, enums.LedgerTransactionPayment, "200.00", "600.00")
	dbtest.SeedLedgerEntry(t, client, account.ID, enums.LedgerTransactionAdjustment, "50.00", "600.00")

	evaluator, err := NewEvaluator(NewRepository(client.DB()))
	require.NoError(t, err)

	summary, err := evaluator.Summary(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "600.00", summary.Balance.StringFixed(2))
	assert.Equal(t, "400.00", summary.AvailableCredit.StringFixed(2))
	assert.Equal(t, "400.00", summary.DisplayAvailable.StringFixed(2))
}

func TestEvaluatorOverLimitKeepsRawAvailable(t *testing.T) {
	client := dbtest.New(t)
	account := dbtest.SeedAccount(t, client, "100.00")
	dbtest.SeedLedgerEntry(t, client, account.ID, enums.LedgerTransactionCreditPurchase, "150.00", "150.00")

	evaluator, err := NewEvaluator(NewRepository(client.DB()))
	require.NoError(t, err)

	available, err := evaluator.AvailableCredit(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "-50.00", available.StringFixed(2))

	summary, err := evaluator.Summary(context.Background(), account)
	require.NoError(t, err)
	assert.True(t, summary.DisplayAvailable.IsZero())
}

func TestEvaluatorEmptyLedger(t *testing.T) {
	client := dbtest.New(t)
	account := dbtest.SeedAccount(t, client, "250.00")

	evaluator, err := NewEvaluator(NewRepository(client.DB()))
	require.NoError(t, err)

	balance, err := evaluator.Balance(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestRecordPayment(t *testing.T) {
	client := dbtest.New(t)
	account := dbtest.SeedAccount(t, client, "1000.00")
	dbtest.SeedLedgerEntry(t, client, account.ID, enums.LedgerTransactionCreditPurchase, "800.00", "800.00")
	svc := newTestService(t, client, nil)

	invoice := "INV-42"
	entry, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("300"),
		InvoiceID: &invoice,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.LedgerTransactionPayment, entry.TransactionType)
	assert.Equal(t, "500.00", entry.BalanceAfter.StringFixed(2))
	assert.Equal(t, "Payment received", entry.Description)

	var events []models.OutboxEvent
	require.NoError(t, client.DB().Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventCreditPaymentRecorded, events[0].EventType)
	assert.Equal(t, entry.ID, events[0].AggregateID)

	summary, err := svc.Summary(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", summary.Balance.StringFixed(2))
}

func TestRecordPaymentValidation(t *testing.T) {
	client := dbtest.New(t)
	account := dbtest.SeedAccount(t, client, "1000.00")
	svc := newTestService(t, client, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{AccountID: account.ID, Amount: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{Amount: decimal.NewFromInt(5)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{AccountID: uuid.New(), Amount: decimal.NewFromInt(5)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRecordPaymentRollsBackWhenOutboxFails(t *testing.T) {
	client := dbtest.New(t)
	account := dbtest.SeedAccount(t, client, "1000.00")
	svc := newTestService(t, client, failingEmitter{})

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{AccountID: account.ID, Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	assert.Zero(t, dbtest.Count(t, client, &models.CreditLedgerEntry{}))
}

func TestStatementNewestFirst(t *testing.T) {
	client := dbtest.New(t)
	account := dbtest.SeedAccount(t, client, "1000.00")
	svc := newTestService(t, client, nil)

	for _, amount := range []string{"10", "20", "30"} {
		_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
			AccountID: account.ID,
			Amount:    decimal.RequireFromString(amount),
		})
		require.NoError(t, err)
	}

	entries, err := svc.Statement(context.Background(), account.ID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "30.00", entries[0].Amount.StringFixed(2))
	assert.Equal(t, "-60.00", entries[0].BalanceAfter.StringFixed(2))
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
