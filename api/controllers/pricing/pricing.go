package pricing

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesale-backend/api/responses"
	"github.com/angelmondragon/wholesale-backend/api/validators"
	"github.com/angelmondragon/wholesale-backend/internal/checkout"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

type lineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func (l lineRequest) cartLine() checkout.CartLine {
	return checkout.CartLine{ProductID: l.ProductID, Quantity: l.Quantity}
}

type cartRequest struct {
	Items []lineRequest `json:"items"`
}

// Calculate prices a single product at the requested quantity.
func Calculate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "checkout service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		req, err := validators.Decode[lineRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.QuoteLine(r.Context(), req.cartLine())
	})
}

// CartTotal prices a whole cart and reports unorderable lines instead of
// failing on them.
func CartTotal(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return responses.Unavailable(logg, "checkout service")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		req, err := validators.Decode[cartRequest](r)
		if err != nil {
			return nil, err
		}
		lines := make([]checkout.CartLine, len(req.Items))
		for i, item := range req.Items {
			lines[i] = item.cartLine()
		}
		return svc.PreviewCart(r.Context(), lines)
	})
}
