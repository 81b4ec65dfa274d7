package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTable(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
		details   bool
	}{
		{CodeValidation, http.StatusBadRequest, false, true},
		{CodeUnauthorized, http.StatusUnauthorized, false, false},
		{CodeForbidden, http.StatusForbidden, false, false},
		{CodeNotFound, http.StatusNotFound, false, true},
		{CodeConflict, http.StatusConflict, false, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false, true},
		{CodePolicy, http.StatusUnprocessableEntity, false, true},
		{CodePersistence, http.StatusServiceUnavailable, true, false},
		{CodeIdempotency, http.StatusConflict, false, true},
		{CodeInternal, http.StatusInternalServerError, true, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			m := MetadataFor(tc.code)
			assert.Equal(t, tc.status, m.HTTPStatus)
			assert.Equal(t, tc.retryable, m.Retryable)
			assert.Equal(t, tc.details, m.DetailsAllowed)
			assert.NotEmpty(t, m.PublicMessage)
		})
	}
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor("NOT_A_CODE"))
}

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := stdErrors.New("deadlock detected")
	err := Wrap(CodePersistence, cause, "commit order")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodePersistence, err.Code())
	assert.Equal(t, "PERSISTENCE_ERROR: commit order", err.Error())

	bare := Wrap(CodeValidation, nil, "empty order")
	assert.NoError(t, bare.Unwrap())
	assert.Nil(t, bare.Details())
	assert.Equal(t, "ok", bare.WithDetails("ok").Details())
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Empty(t, e.Message())
	assert.Nil(t, e.WithDetails("x"))
	assert.Nil(t, As(nil))
}

func TestPolicyReasonSurvivesWrapping(t *testing.T) {
	err := Policy(ReasonCreditExceeded, "insufficient credit", map[string]any{"available_credit": "400.00"})
	wrapped := fmt.Errorf("commit: %w", err)

	assert.True(t, IsCode(wrapped, CodePolicy))
	assert.False(t, IsCode(wrapped, CodeValidation))
	assert.Equal(t, ReasonCreditExceeded, Reason(wrapped))
	assert.Equal(t, "400.00", err.Details().(map[string]any)["available_credit"])
	assert.Empty(t, Reason(stdErrors.New("plain")))
	assert.Empty(t, Reason(New(CodeNotFound, "missing")))
}

func TestDumpExtractsPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key", TableName: "products", Message: "duplicate key"}
	err := Wrap(CodeConflict, pgErr, "create product")

	dump := Dump(fmt.Errorf("seed: %w", err))
	assert.Equal(t, CodeConflict, dump.Code)
	assert.Len(t, dump.Chain, 3)
	require.NotNil(t, dump.DB)
	assert.Equal(t, "23505", dump.DB.SQLState)
	assert.Equal(t, "products_sku_key", dump.DB.Constraint)

	assert.Nil(t, Dump(stdErrors.New("plain")).DB)
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
