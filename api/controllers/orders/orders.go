package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesale-backend/api/responses"
	"github.com/angelmondragon/wholesale-backend/api/validators"
	"github.com/angelmondragon/wholesale-backend/internal/checkout"
	internalorders "github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/pagination"
)

type placeOrderRequest struct {
	Items        []orderLineRequest `json:"items"`
	PaymentTerms string             `json:"payment_terms" validate:"required"`
	Notes        *string            `json:"notes,omitempty"`
}

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Place submits the caller's cart as a new order.
func Place(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "checkout service")
	}
	return responses.Handle(logg, http.StatusCreated, func(r *http.Request) (any, error) {
		caller, err := viewerFromRequest(r)
		if err != nil {
			return nil, err
		}
		req, err := validators.Decode[placeOrderRequest](r)
		if err != nil {
			return nil, err
		}
		lines := make([]checkout.CartLine, len(req.Items))
		for i, item := range req.Items {
			lines[i] = checkout.CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		return svc.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
			AccountID:    caller.AccountID,
			Items:        lines,
			PaymentTerms: enums.PaymentTerms(strings.TrimSpace(req.PaymentTerms)),
			Notes:        req.Notes,
			Actor:        actorFor(caller),
		})
	})
}

// List returns the caller's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "orders service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		caller, err := viewerFromRequest(r)
		if err != nil {
			return nil, err
		}
		page, err := pageParams(r)
		if err != nil {
			return nil, err
		}
		return svc.ListForAccount(r.Context(), caller.AccountID, page)
	})
}

// Get returns one order. Retailers only see their own.
func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "orders service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		caller, err := viewerFromRequest(r)
		if err != nil {
			return nil, err
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		return svc.Get(r.Context(), orderID, caller)
	})
}

// ReorderLast lists the items of the caller's most recent non-cancelled order.
func ReorderLast(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "orders service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		caller, err := viewerFromRequest(r)
		if err != nil {
			return nil, err
		}
		return svc.ReorderItems(r.Context(), caller.AccountID)
	})
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}, nil
}
