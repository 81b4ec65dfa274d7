package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/lock"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox/payloads"
)

const maxStatementEntries = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes credit reads and payment recording.
type Service interface {
	Summary(ctx context.Context, accountID uuid.UUID) (Summary, error)
	Statement(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditLedgerEntry, error)
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.CreditLedgerEntry, error)
}

// RecordPaymentInput describes a payment received against an account balance.
type RecordPaymentInput struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Description string
	InvoiceID   *string
	Actor       *outbox.ActorRef
}

// ServiceParams groups the collaborators of the ledger service.
type ServiceParams struct {
	DB       txRunner
	Ledger   Repository
	Accounts accounts.Repository
	Locker   lock.Locker
	Outbox   outbox.Emitter
	Logger   *logger.Logger
}

type service struct {
	db        txRunner
	ledger    Repository
	evaluator *Evaluator
	accounts  accounts.Repository
	locker    lock.Locker
	outbox    outbox.Emitter
	logg      *logger.Logger
}

// NewService wires the ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
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
	evaluator, err := NewEvaluator(params.Ledger)
	if err != nil {
		return nil, err
	}
	return &service{
		db:        params.DB,
		ledger:    params.Ledger,
		evaluator: evaluator,
		accounts:  params.Accounts,
		locker:    params.Locker,
		outbox:    params.Outbox,
		logg:      params.Logger,
	}, nil
}

func (s *service) Summary(ctx context.Context, accountID uuid.UUID) (Summary, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}
	return s.evaluator.Summary(ctx, account)
}

func (s *service) Statement(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditLedgerEntry, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if limit <= 0 || limit > maxStatementEntries {
		limit = maxStatementEntries
	}
	return s.ledger.ListByAccount(ctx, accountID, limit)
}

// RecordPayment appends a payment entry under the account lock so it
// serializes with concurrent credit commits.
func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.CreditLedgerEntry, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive").
			WithDetails(map[string]any{"amount": input.Amount.String()})
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = "Payment received"
	}

	var entry *models.CreditLedgerEntry
	err := s.locker.WithLock(ctx, lock.AccountKey(input.AccountID), func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := s.accounts.WithTx(tx).LockByID(ctx, input.AccountID); err != nil {
				return err
			}
			ledgerRepo := s.ledger.WithTx(tx)
			balance, err := ledgerRepo.Balance(ctx, input.AccountID)
			if err != nil {
				return err
			}

			entry = &models.CreditLedgerEntry{
				AccountID:       input.AccountID,
				InvoiceID:       input.InvoiceID,
				TransactionType: enums.LedgerTransactionPayment,
				Amount:          amount,
				BalanceAfter:    balance.Sub(amount).Round(2),
				Description:     description,
			}
			if err := ledgerRepo.Append(ctx, entry); err != nil {
				return err
			}

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCreditPaymentRecorded,
				AggregateType: enums.AggregateLedgerEntry,
				AggregateID:   entry.ID,
				Actor:         input.Actor,
				Data: payloads.CreditPaymentRecordedEvent{
					EntryID:      entry.ID,
					AccountID:    entry.AccountID,
					InvoiceID:    entry.InvoiceID,
					Amount:       entry.Amount,
					BalanceAfter: entry.BalanceAfter,
				},
			})
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodePersistence, err, "record payment failed")
		}
		s.logg.Error(ctx, "ledger.record_payment_failed", err)
		return nil, err
	}

	ctx = s.logg.WithAccountID(ctx, input.AccountID.String())
	s.logg.Info(ctx, "ledger.payment_recorded")
	return entry, nil
}
