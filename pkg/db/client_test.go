package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
)

type widget struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

// sqliteClient returns a client over a private in-memory database.
func sqliteClient(t *testing.T) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return NewFromGorm(conn)
}

func widgets(t *testing.T, c *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, c.DB().Model(&widget{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOrRollsBack(t *testing.T) {
	c := sqliteClient(t)
	ctx := context.Background()

	require.NoError(t, c.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "kept"}).Error
	}))
	err := c.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&widget{Name: "dropped"}).Error)
		return errors.New("abort")
	})

	assert.EqualError(t, err, "abort")
	assert.EqualValues(t, 1, widgets(t, c))
}

func TestWithTxRollsBackAndRepanics(t *testing.T) {
	c := sqliteClient(t)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = c.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&widget{Name: "half-done"}).Error)
			panic("kaboom")
		})
	})
	assert.Zero(t, widgets(t, c))
}

func TestWithTxRetriesSerializationFailures(t *testing.T) {
	c := sqliteClient(t)
	c.txRetries = 2

	attempts := 0
	err := c.WithTx(context.Background(), func(tx *gorm.DB) error {
		if attempts++; attempts < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return tx.Create(&widget{Name: "third time"}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = c.WithTx(context.Background(), func(*gorm.DB) error {
		attempts++
		return &pgconn.PgError{Code: "40001"}
	})
	assert.True(t, IsSerializationFailure(err))
	assert.Equal(t, 3, attempts, "gives up after the configured retries")

	attempts = 0
	_ = c.WithTx(context.Background(), func(*gorm.DB) error {
		attempts++
		return errors.New("not retryable")
	})
	assert.Equal(t, 1, attempts)
}

func TestPingAndDialect(t *testing.T) {
	c := sqliteClient(t)
	assert.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "sqlite", c.Dialect())
}

func TestIsUniqueViolation(t *testing.T) {
	c := sqliteClient(t)
	require.NoError(t, c.DB().Create(&widget{Name: "dup"}).Error)
	assert.True(t, IsUniqueViolation(c.DB().Create(&widget{Name: "dup"}).Error, ""))

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	assert.True(t, IsUniqueViolation(pgErr, "orders_order_number_key"))
	assert.False(t, IsUniqueViolation(pgErr, "other_constraint"))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsSerializationFailure(errors.New("boom")))
}

func TestDialectorFor(t *testing.T) {
	_, err := dialectorFor(config.DBConfig{}, false)
	assert.Error(t, err, "postgres needs a dsn")
	_, err = dialectorFor(config.DBConfig{}, true)
	assert.Error(t, err, "sqlite needs a path")

	d, err := dialectorFor(config.DBConfig{SQLitePath: ":memory:"}, true)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}
