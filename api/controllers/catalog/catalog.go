package catalog

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/api/responses"
	"github.com/angelmondragon/wholesale-backend/api/validators"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// Reader is the slice of the catalog repository the browse routes need.
type Reader interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	FindForOrdering(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type tierResponse struct {
	ID          uuid.UUID       `json:"id"`
	MinQuantity int             `json:"min_quantity"`
	MaxQuantity *int            `json:"max_quantity"`
	Price       decimal.Decimal `json:"price"`
}

type productResponse struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	MOQ          int             `json:"moq"`
	BasePrice    decimal.Decimal `json:"base_price"`
	PricingTiers []tierResponse  `json:"pricing_tiers"`
}

func newProductResponse(p models.Product) productResponse {
	tiers := make([]tierResponse, len(p.Tiers))
	for i, t := range p.Tiers {
		tiers[i] = tierResponse{ID: t.ID, MinQuantity: t.MinQuantity, MaxQuantity: t.MaxQuantity, Price: t.Price}
	}
	return productResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Unit:         p.Unit,
		MOQ:          p.MOQ,
		BasePrice:    p.BasePrice,
		PricingTiers: tiers,
	}
}

// List returns the active catalog with each product's tier table.
func List(products Reader, logg *logger.Logger) http.HandlerFunc {
	if products == nil {
		return responses.Unavailable(logg, "catalog")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		active, err := products.ListActive(r.Context())
		if err != nil {
			return nil, err
		}
		out := make([]productResponse, len(active))
		for i, p := range active {
			out[i] = newProductResponse(p)
		}
		return map[string]any{"products": out}, nil
	})
}

// Get returns one active product. Inactive products are not found.
func Get(products Reader, logg *logger.Logger) http.HandlerFunc {
	if products == nil {
		return responses.Unavailable(logg, "catalog")
	}
	return responses.Handle(logg, http.StatusOK, func(r *http.Request) (any, error) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return nil, err
		}
		product, err := products.FindForOrdering(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return newProductResponse(*product), nil
	})
}
