package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/ledger"
	"github.com/angelmondragon/wholesale-backend/internal/lock"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CommitInput is an assembled order ready to be persisted for an account.
type CommitInput struct {
	AccountID    uuid.UUID
	Order        *AssembledOrder
	PaymentTerms enums.PaymentTerms
	Notes        *string
	Actor        *outbox.ActorRef
}

// CommitResult identifies the committed order.
type CommitResult struct {
	OrderID      uuid.UUID          `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	Status       enums.OrderStatus  `json:"status"`
	PaymentTerms enums.PaymentTerms `json:"payment_terms"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
}

// CoordinatorParams groups the collaborators of the commit path.
type CoordinatorParams struct {
	DB       txRunner
	Accounts accounts.Repository
	Ledger   ledger.Repository
	Orders   orders.Repository
	Locker   lock.Locker
	Outbox   outbox.Emitter
	Numbers  *OrderNumberGenerator
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

// Coordinator persists assembled orders. Commits for the same account are
// serialized so the credit check and the ledger append see the same balance.
type Coordinator struct {
	db        txRunner
	accounts  accounts.Repository
	ledger    ledger.Repository
	evaluator *ledger.Evaluator
	orders    orders.Repository
	locker    lock.Locker
	outbox    outbox.Emitter
	numbers   *OrderNumberGenerator
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewCoordinator validates and wires the commit collaborators.
func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("account locker required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Numbers == nil {
		params.Numbers = NewOrderNumberGenerator("")
	}
	evaluator, err := ledger.NewEvaluator(params.Ledger)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		db:        params.DB,
		accounts:  params.Accounts,
		ledger:    params.Ledger,
		evaluator: evaluator,
		orders:    params.Orders,
		locker:    params.Locker,
		outbox:    params.Outbox,
		numbers:   params.Numbers,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Commit writes the order header, its items and, for credit terms, the ledger
// charge in one transaction. A credit order whose total exceeds the available
// credit is rejected before anything is written.
func (c *Coordinator) Commit(ctx context.Context, input CommitInput) (*CommitResult, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.Order == nil || len(input.Order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.PaymentTerms.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment terms").
			WithDetails(map[string]any{"payment_terms": input.PaymentTerms})
	}

	started := time.Now()
	defer func() { c.metrics.ObserveCommit(time.Since(started)) }()

	var result *CommitResult
	err := c.locker.WithLock(ctx, lock.AccountKey(input.AccountID), func(ctx context.Context) error {
		return c.db.WithTx(ctx, func(tx *gorm.DB) error {
			res, err := c.commitTx(ctx, tx, input)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodePersistence, err, "order commit failed")
		}
		return nil, err
	}

	c.metrics.IncCommit(string(result.PaymentTerms))
	ctx = c.logg.WithOrderID(c.logg.WithAccountID(ctx, input.AccountID.String()), result.OrderID.String())
	c.logg.Info(ctx, "checkout.order_committed")
	return result, nil
}

func (c *Coordinator) commitTx(ctx context.Context, tx *gorm.DB, input CommitInput) (*CommitResult, error) {
	account, err := c.accounts.WithTx(tx).LockByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	assembled := input.Order
	total := assembled.Total.Round(2)
	credit := input.PaymentTerms.IsCredit()

	var balance decimal.Decimal
	if credit {
		summary, err := c.evaluator.WithTx(tx).Summary(ctx, account)
		if err != nil {
			return nil, err
		}
		if total.GreaterThan(summary.AvailableCredit) {
			return nil, pkgerrors.Policy(
				pkgerrors.ReasonCreditExceeded,
				"order total exceeds available credit",
				map[string]any{
					"available_credit": summary.AvailableCredit.StringFixed(2),
					"order_total":      total.StringFixed(2),
				},
			)
		}
		balance = summary.Balance
	}

	number, err := c.numbers.Next()
	if err != nil {
		return nil, err
	}

	ordersRepo := c.orders.WithTx(tx)
	order := &models.Order{
		OrderNumber:    number,
		AccountID:      account.ID,
		Status:         enums.OrderStatusPending,
		PaymentTerms:   input.PaymentTerms,
		Subtotal:       assembled.Subtotal.Round(2),
		TaxAmount:      assembled.TaxAmount.Round(2),
		ShippingAmount: assembled.ShippingAmount.Round(2),
		TotalAmount:    total,
		Notes:          input.Notes,
	}
	if err := ordersRepo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(assembled.Items))
	for _, draft := range assembled.Items {
		items = append(items, models.OrderItem{
			OrderID:     order.ID,
			ProductID:   draft.ProductID,
			SKU:         draft.SKU,
			ProductName: draft.ProductName,
			Quantity:    draft.Quantity,
			UnitPrice:   draft.UnitPrice,
			TierApplied: draft.TierApplied,
			Subtotal:    draft.Subtotal,
		})
	}
	if err := ordersRepo.CreateItems(ctx, items); err != nil {
		return nil, err
	}

	if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         input.Actor,
		Data: payloads.OrderCreatedEvent{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			AccountID:    order.AccountID,
			PaymentTerms: order.PaymentTerms,
			ItemCount:    len(items),
			TotalAmount:  order.TotalAmount,
		},
	}); err != nil {
		return nil, err
	}

	if credit {
		orderID := order.ID
		entry := &models.CreditLedgerEntry{
			AccountID:       account.ID,
			OrderID:         &orderID,
			TransactionType: enums.LedgerTransactionCreditPurchase,
			Amount:          total,
			BalanceAfter:    balance.Add(total).Round(2),
			Description:     "Order " + order.OrderNumber,
		}
		if err := c.ledger.WithTx(tx).Append(ctx, entry); err != nil {
			return nil, err
		}
		if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCreditCharged,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entry.ID,
			Actor:         input.Actor,
			Data: payloads.CreditChargedEvent{
				EntryID:      entry.ID,
				AccountID:    entry.AccountID,
				OrderID:      order.ID,
				Amount:       entry.Amount,
				BalanceAfter: entry.BalanceAfter,
			},
		}); err != nil {
			return nil, err
		}
	}

	return &CommitResult{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Status:       order.Status,
		PaymentTerms: order.PaymentTerms,
		TotalAmount:  order.TotalAmount,
	}, nil
}
