package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesale-backend/api/responses"
	"github.com/angelmondragon/wholesale-backend/api/validators"
	internalorders "github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminList returns orders across accounts, optionally filtered by
// ?status= and ?account_id=.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "orders service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		page, err := pageParams(r)
		if err != nil {
			return nil, err
		}
		filter, err := adminFilter(r)
		if err != nil {
			return nil, err
		}
		return svc.ListAll(r.Context(), filter, page)
	})
}

// AdminUpdateStatus moves an order one step through its lifecycle.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "orders service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		admin, err := viewerFromRequest(r)
		if err != nil {
			return nil, err
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		req, err := validators.Decode[updateStatusRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID: orderID,
			Status:  enums.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))),
			Actor:   actorFor(admin),
		})
	})
}

func adminFilter(r *http.Request) (internalorders.ListFilter, error) {
	var filter internalorders.ListFilter
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := enums.OrderStatus(strings.ToLower(raw))
		filter.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("account_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "account_id must be a uuid").
				WithDetails(map[string]any{"field": "account_id"})
		}
		filter.AccountID = &id
	}
	return filter, nil
}
