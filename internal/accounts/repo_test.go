package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

func seedAccount(t *testing.T, r Repository, status enums.AccountStatus, limit string) *models.RetailerAccount {
	t.Helper()
	account := &models.RetailerAccount{
		BusinessName: "Corner Shop",
		Email:        uuid.NewString() + "@example.com",
		Role:         enums.AccountRoleRetailer,
		Status:       status,
		CreditLimit:  decimal.RequireFromString(limit),
	}
	require.NoError(t, r.Create(context.Background(), account))
	return account
}

func TestRepositoryFindAndLock(t *testing.T) {
	client := dbtest.New(t)
	r := NewRepository(client.DB())
	account := seedAccount(t, r, enums.AccountStatusApproved, "1000.00")

	found, err := r.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.Email, found.Email)
	assert.True(t, found.CreditLimit.Equal(decimal.NewFromInt(1000)))

	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		locked, err := r.WithTx(tx).LockByID(context.Background(), account.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, account.ID, locked.ID)
		return nil
	})
	require.NoError(t, err)

	_, err = r.FindByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceSetCreditLimit(t *testing.T) {
	client := dbtest.New(t)
	r := NewRepository(client.DB())
	account := seedAccount(t, r, enums.AccountStatusApproved, "100.00")
	svc, err := NewService(r)
	require.NoError(t, err)

	updated, err := svc.SetCreditLimit(context.Background(), account.ID, decimal.RequireFromString("2500.555"))
	require.NoError(t, err)
	assert.Equal(t, "2500.56", updated.CreditLimit.StringFixed(2))

	_, err = svc.SetCreditLimit(context.Background(), account.ID, decimal.NewFromInt(-1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.SetCreditLimit(context.Background(), uuid.New(), decimal.NewFromInt(10))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceRequireApproved(t *testing.T) {
	client := dbtest.New(t)
	r := NewRepository(client.DB())
	pending := seedAccount(t, r, enums.AccountStatusPending, "0")
	approved := seedAccount(t, r, enums.AccountStatusApproved, "0")
	svc, err := NewService(r)
	require.NoError(t, err)

	_, err = svc.RequireApproved(context.Background(), pending.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	got, err := svc.RequireApproved(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.ID, got.ID)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}
