package credit

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/api/middleware"
	"github.com/angelmondragon/wholesale-backend/api/responses"
	"github.com/angelmondragon/wholesale-backend/api/validators"
	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/ledger"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
)

type creditLimitRequest struct {
	CreditLimit *decimal.Decimal `json:"credit_limit" validate:"required"`
}

type recordPaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Description string           `json:"description" validate:"max=500"`
	InvoiceID   *string          `json:"invoice_id,omitempty"`
}

type accountResponse struct {
	ID           uuid.UUID           `json:"id"`
	BusinessName string              `json:"business_name"`
	Status       enums.AccountStatus `json:"status"`
	CreditLimit  decimal.Decimal     `json:"credit_limit"`
}

func adminActor(r *http.Request) *outbox.ActorRef {
	id, err := middleware.CallerID(r.Context())
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{AccountID: id, Role: middleware.RoleFromContext(r.Context())}
}

// AdminSetCreditLimit replaces a retailer's credit limit.
func AdminSetCreditLimit(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "accounts service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		accountID, err := validators.ParseUUIDParam(r, "accountId")
		if err != nil {
			return nil, err
		}
		req, err := validators.Decode[creditLimitRequest](r)
		if err != nil {
			return nil, err
		}
		account, err := svc.SetCreditLimit(r.Context(), accountID, *req.CreditLimit)
		if err != nil {
			return nil, err
		}
		return newAccountResponse(account), nil
	})
}

// AdminRecordPayment records a payment received against a retailer's balance.
func AdminRecordPayment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "ledger service")
	}
	return responses.Handle(logg, http.StatusCreated, func(r *http.Request) (any, error) {
		accountID, err := validators.ParseUUIDParam(r, "accountId")
		if err != nil {
			return nil, err
		}
		req, err := validators.Decode[recordPaymentRequest](r)
		if err != nil {
			return nil, err
		}
		entry, err := svc.RecordPayment(r.Context(), ledger.RecordPaymentInput{
			AccountID:   accountID,
			Amount:      *req.Amount,
			Description: validators.SanitizeString(req.Description, 500),
			InvoiceID:   trimmedOrNil(req.InvoiceID),
			Actor:       adminActor(r),
		})
		if err != nil {
			return nil, err
		}
		return newLedgerEntryResponse(*entry), nil
	})
}

func newAccountResponse(account *models.RetailerAccount) accountResponse {
	if account == nil {
		return accountResponse{}
	}
	return accountResponse{
		ID:           account.ID,
		BusinessName: account.BusinessName,
		Status:       account.Status,
		CreditLimit:  account.CreditLimit,
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
