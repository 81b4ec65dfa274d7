package responses

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

func TestHandleRendersPayloadWithStatus(t *testing.T) {
	h := Handle(nil, http.StatusCreated, func(*http.Request) (any, error) {
		return map[string]string{"order_number": "ORD-1"}, nil
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ORD-1", decode(t, rec).Data["order_number"])
}

func TestHandleRendersErrors(t *testing.T) {
	h := Handle(nil, http.StatusCreated, func(*http.Request) (any, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeNotFound), decode(t, rec).Error.Code)
}

func TestUnavailableNamesDependency(t *testing.T) {
	rec := httptest.NewRecorder()
	Unavailable(nil, "ledger service")(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInternal), decode(t, rec).Error.Code)
}
