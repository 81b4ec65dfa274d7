package credit

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/api/middleware"
	"github.com/angelmondragon/wholesale-backend/api/responses"
	"github.com/angelmondragon/wholesale-backend/api/validators"
	"github.com/angelmondragon/wholesale-backend/internal/ledger"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

const (
	defaultStatementLimit = 50
	maxStatementLimit     = 200
)

type ledgerEntryResponse struct {
	ID              uuid.UUID                   `json:"id"`
	OrderID         *uuid.UUID                  `json:"order_id,omitempty"`
	InvoiceID       *string                     `json:"invoice_id,omitempty"`
	TransactionType enums.LedgerTransactionType `json:"transaction_type"`
	Amount          decimal.Decimal             `json:"amount"`
	BalanceAfter    decimal.Decimal             `json:"balance_after"`
	Description     string                      `json:"description"`
	CreatedAt       time.Time                   `json:"created_at"`
}

func newLedgerEntryResponse(entry models.CreditLedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:              entry.ID,
		OrderID:         entry.OrderID,
		InvoiceID:       entry.InvoiceID,
		TransactionType: entry.TransactionType,
		Amount:          entry.Amount,
		BalanceAfter:    entry.BalanceAfter,
		Description:     entry.Description,
		CreatedAt:       entry.CreatedAt,
	}
}

// Summary returns the caller's credit limit, balance and available credit.
func Summary(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "ledger service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		accountID, err := middleware.CallerID(r.Context())
		if err != nil {
			return nil, err
		}
		return svc.Summary(r.Context(), accountID)
	})
}

// Ledger returns the caller's most recent ledger entries.
func Ledger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "ledger service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		accountID, err := middleware.CallerID(r.Context())
		if err != nil {
			return nil, err
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultStatementLimit, 1, maxStatementLimit)
		if err != nil {
			return nil, err
		}
		entries, err := svc.Statement(r.Context(), accountID, limit)
		if err != nil {
			return nil, err
		}
		out := make([]ledgerEntryResponse, len(entries))
		for i, entry := range entries {
			out[i] = newLedgerEntryResponse(entry)
		}
		return map[string]any{"entries": out}, nil
	})
}
