package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

// Service exposes account reads and the admin credit-limit update.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error)
	RequireApproved(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error)
	SetCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) (*models.RetailerAccount, error)
}

type service struct {
	repo Repository
}

// NewService wires an account service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	return s.repo.FindByID(ctx, id)
}

// RequireApproved returns the account only when it may place orders.
func (s *service) RequireApproved(ctx context.Context, id uuid.UUID) (*models.RetailerAccount, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.IsApproved() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is not approved for ordering").
			WithDetails(map[string]any{"status": account.Status})
	}
	return account, nil
}

func (s *service) SetCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) (*models.RetailerAccount, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if limit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must not be negative").
			WithDetails(map[string]any{"credit_limit": limit.StringFixed(2)})
	}
	if err := s.repo.UpdateCreditLimit(ctx, id, limit.Round(2)); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
