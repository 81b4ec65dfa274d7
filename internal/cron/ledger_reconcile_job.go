package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

type reconcileLedger interface {
	AccountIDsWithEntries(ctx context.Context) ([]uuid.UUID, error)
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	Latest(ctx context.Context, accountID uuid.UUID) (*models.CreditLedgerEntry, error)
}

type reconcileAccounts interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error)
}

// LedgerReconcileJobParams configure the ledger reconciliation job.
type LedgerReconcileJobParams struct {
	Logger   *logger.Logger
	Ledger   reconcileLedger
	Accounts reconcileAccounts
}

// NewLedgerReconcileJob checks, for every account with ledger activity, that
// the summed balance matches the newest balance_after and stays within the
// credit limit.
func NewLedgerReconcileJob(params LedgerReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	return &ledgerReconcileJob{
		logg:     params.Logger,
		ledger:   params.Ledger,
		accounts: params.Accounts,
	}, nil
}

type ledgerReconcileJob struct {
	logg     *logger.Logger
	ledger   reconcileLedger
	accounts reconcileAccounts
}

func (j *ledgerReconcileJob) Name() string { return "ledger-reconcile" }

// Run returns every discrepancy found, combined. A failing account does not
// stop the others from being checked.
func (j *ledgerReconcileJob) Run(ctx context.Context) error {
	ids, err := j.ledger.AccountIDsWithEntries(ctx)
	if err != nil {
		return fmt.Errorf("list ledger accounts: %w", err)
	}

	var errs error
	for _, id := range ids {
		if err := j.checkAccount(ctx, id); err != nil {
			accountCtx := j.logg.WithAccountID(ctx, id.String())
			j.logg.Warn(j.logg.WithField(accountCtx, "error", err.Error()), "ledger.reconcile_mismatch")
			errs = multierr.Append(errs, err)
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"accounts_checked": len(ids),
		"mismatches":       len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "ledger reconciliation complete")
	return errs
}

func (j *ledgerReconcileJob) checkAccount(ctx context.Context, accountID uuid.UUID) error {
	balance, err := j.ledger.Balance(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account %s: balance: %w", accountID, err)
	}
	latest, err := j.ledger.Latest(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account %s: latest entry: %w", accountID, err)
	}
	account, err := j.accounts.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account %s: load: %w", accountID, err)
	}

	var errs error
	if latest != nil && !latest.BalanceAfter.Round(2).Equal(balance) {
		errs = multierr.Append(errs, fmt.Errorf(
			"account %s: balance %s differs from latest balance_after %s",
			accountID, balance.StringFixed(2), latest.BalanceAfter.StringFixed(2),
		))
	}
	if balance.GreaterThan(account.CreditLimit) {
		errs = multierr.Append(errs, fmt.Errorf(
			"account %s: balance %s exceeds credit limit %s",
			accountID, balance.StringFixed(2), account.CreditLimit.StringFixed(2),
		))
	}
	return errs
}
