package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wholesale-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order reads and the admin status workflow.
type Service interface {
	Get(ctx context.Context, orderID uuid.UUID, viewer Viewer) (*OrderDTO, error)
	ListForAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	ReorderItems(ctx context.Context, accountID uuid.UUID) (*ReorderList, error)
}

// UpdateStatusInput moves an order to Status on behalf of Actor.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   *outbox.ActorRef
}

type service struct {
	tx       txRunner
	repo     Repository
	products ProductReader
	outbox   outbox.Emitter
	logg     *logger.Logger
}

// NewService builds the orders service.
func NewService(tx txRunner, repo Repository, products ProductReader, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, products: products, outbox: emitter, logg: logg}, nil
}

// Get returns the order when viewer may read it. Retailers only see their own
// orders.
func (s *service) Get(ctx context.Context, orderID uuid.UUID, viewer Viewer) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && order.AccountID != viewer.AccountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	dto := NewOrderDTO(*order)
	return &dto, nil
}

func (s *service) ListForAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	return s.list(ctx, ListFilter{AccountID: &accountID}, params)
}

func (s *service) ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.list(ctx, filter, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error) {
	rows, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, err
	}
	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Orders = append(out.Orders, NewOrderDTO(row))
	}
	return out, nil
}

// UpdateStatus applies one lifecycle transition. Moves the status machine does
// not allow fail with STATE_CONFLICT and leave the order untouched.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": input.Status})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		from := order.Status
		if !from.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]any{"from": from, "to": input.Status})
		}
		if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				AccountID:   order.AccountID,
				From:        from,
				To:          input.Status,
			},
		}); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update order status failed")
		}
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, updated.ID.String())
	s.logg.Info(ctx, "orders.status_updated")
	dto := NewOrderDTO(*updated)
	return &dto, nil
}

// ReorderItems lists the lines of the most recent non-cancelled order with the
// products' current MOQ and base price. Products no longer orderable are
// skipped.
func (s *service) ReorderItems(ctx context.Context, accountID uuid.UUID) (*ReorderList, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	order, err := s.repo.LatestReorderable(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no previous order to reorder")
	}

	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindManyForOrdering(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &ReorderList{OrderID: order.ID, OrderNumber: order.OrderNumber, Items: []ReorderItem{}}
	for _, item := range order.Items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		out.Items = append(out.Items, ReorderItem{
			ProductID:        product.ID,
			SKU:              product.SKU,
			ProductName:      product.Name,
			PreviousQuantity: item.Quantity,
			MOQ:              product.MOQ,
			BasePrice:        product.BasePrice,
		})
	}
	return out, nil
}
