package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

// Summary is the credit position of one account.
type Summary struct {
	AccountID        uuid.UUID       `json:"account_id"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableCredit  decimal.Decimal `json:"available_credit"`
	DisplayAvailable decimal.Decimal `json:"display_available"`
}

// Evaluator computes balances and available credit from the ledger. Bound to a
// transaction it observes that transaction's view of the ledger.
type Evaluator struct {
	repo Repository
}

// NewEvaluator returns an evaluator reading through repo.
func NewEvaluator(repo Repository) (*Evaluator, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &Evaluator{repo: repo}, nil
}

// WithTx returns an evaluator bound to tx.
func (e *Evaluator) WithTx(tx *gorm.DB) *Evaluator {
	return &Evaluator{repo: e.repo.WithTx(tx)}
}

// Balance is the outstanding amount: purchases minus payments.
func (e *Evaluator) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return e.repo.Balance(ctx, accountID)
}

// AvailableCredit is credit_limit minus balance. It is negative when the
// account is over its limit.
func (e *Evaluator) AvailableCredit(ctx context.Context, account *models.RetailerAccount) (decimal.Decimal, error) {
	summary, err := e.Summary(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	return summary.AvailableCredit, nil
}

func (e *Evaluator) Summary(ctx context.Context, account *models.RetailerAccount) (Summary, error) {
	if account == nil {
		return Summary{}, fmt.Errorf("account required")
	}
	balance, err := e.repo.Balance(ctx, account.ID)
	if err != nil {
		return Summary{}, err
	}
	return newSummary(account, balance), nil
}

func newSummary(account *models.RetailerAccount, balance decimal.Decimal) Summary {
	limit := account.CreditLimit.Round(2)
	available := limit.Sub(balance).Round(2)
	display := available
	if display.IsNegative() {
		display = decimal.Zero
	}
	return Summary{
		AccountID:        account.ID,
		CreditLimit:      limit,
		Balance:          balance,
		AvailableCredit:  available,
		DisplayAvailable: display,
	}
}
