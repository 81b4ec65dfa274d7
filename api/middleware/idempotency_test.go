package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/api/validators"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

const ordersPath = "/api/v1/orders"

// memRecords is a map-backed IdempotencyStore. Keys are not namespaced so
// tests can inspect them directly.
type memRecords struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memRecords) IdempotencyKey(scope, id string) string { return scope + "#" + id }

func (m *memRecords) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.keys[key]; taken {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *memRecords) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memRecords) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = value.(string)
	return nil
}

func (m *memRecords) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

// guarded wraps h in the middleware and counts how often h actually runs.
type guarded struct {
	t       *testing.T
	records *memRecords
	mw      http.Handler
	runs    int
}

func guard(t *testing.T, h http.HandlerFunc) *guarded {
	g := &guarded{t: t, records: &memRecords{keys: map[string]string{}}}
	g.mw = Idempotency(g.records, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.runs++
		h(w, r)
	}))
	return g
}

func (g *guarded) post(key, body string, decorate ...func(*http.Request) *http.Request) *httptest.ResponseRecorder {
	g.t.Helper()
	req := httptest.NewRequest(http.MethodPost, ordersPath, strings.NewReader(body))
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{ordersPath}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	for _, d := range decorate {
		req = d(req)
	}
	rec := httptest.NewRecorder()
	g.mw.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRouteTTL(t *testing.T) {
	cases := map[string]struct {
		method, path string
		ttl          time.Duration
		guarded      bool
	}{
		"place order":         {http.MethodPost, ordersPath, criticalIdempotencyTTL, true},
		"record payment":      {http.MethodPost, "/api/admin/v1/accounts/{accountId}/payments", criticalIdempotencyTTL, true},
		"order status":        {http.MethodPatch, "/api/admin/v1/orders/{orderId}/status", defaultIdempotencyTTL, true},
		"credit limit":        {http.MethodPatch, "/api/admin/v1/accounts/{accountId}/credit-limit", defaultIdempotencyTTL, true},
		"reads are exempt":    {http.MethodGet, ordersPath, 0, false},
		"suffix without id":   {http.MethodPatch, "/api/admin/v1/orders/status", 0, false},
		"quotes are harmless": {http.MethodPost, "/api/v1/pricing/calculate", 0, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.path)
			assert.Equal(t, tc.guarded, ok)
			assert.Equal(t, tc.ttl, ttl)
		})
	}
}

func TestIdempotencyRequiresKey(t *testing.T) {
	g := guard(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })

	rec := g.post("", `{"lines":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, g.runs)
}

func TestIdempotencyReplaysFinishedRequest(t *testing.T) {
	g := guard(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order_number":"ORD-7"}`))
	})

	first := g.post("k-1", `{"lines":[1]}`)
	again := g.post("k-1", `{"lines":[1]}`)

	assert.Equal(t, 1, g.runs)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(ReplayHeader))
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "true", again.Header().Get(ReplayHeader))
	assert.Equal(t, "application/json", again.Header().Get("Content-Type"))
	assert.JSONEq(t, first.Body.String(), again.Body.String())
}

func TestIdempotencyRejectsReusedKeyWithNewBody(t *testing.T) {
	g := guard(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })

	g.post("k-2", `{"lines":[1]}`)
	rec := g.post("k-2", `{"lines":[2]}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
	assert.Equal(t, 1, g.runs)
}

func TestIdempotencyKeysArePerAccount(t *testing.T) {
	g := guard(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
	as := func(account string) func(*http.Request) *http.Request {
		return func(r *http.Request) *http.Request {
			return r.WithContext(WithAccountID(r.Context(), account))
		}
	}

	g.post("shared", `{}`, as("acct-a"))
	g.post("shared", `{}`, as("acct-b"))

	assert.Equal(t, 2, g.runs)
	assert.Len(t, g.records.keys, 2)
}

func TestIdempotencyConflictsWhileFirstRequestRuns(t *testing.T) {
	var g *guarded
	var duplicate *httptest.ResponseRecorder
	g = guard(t, func(w http.ResponseWriter, _ *http.Request) {
		if duplicate == nil {
			duplicate = g.post("k-3", `{"lines":[1]}`)
		}
		w.WriteHeader(http.StatusCreated)
	})

	original := g.post("k-3", `{"lines":[1]}`)

	assert.Equal(t, http.StatusCreated, original.Code)
	require.NotNil(t, duplicate)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, duplicate))
	assert.Equal(t, 1, g.runs)
}

func TestIdempotencyForgetsServerErrors(t *testing.T) {
	status := http.StatusServiceUnavailable
	g := guard(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(status) })

	assert.Equal(t, http.StatusServiceUnavailable, g.post("k-4", `{}`).Code)
	assert.Empty(t, g.records.keys)

	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, g.post("k-4", `{}`).Code)
	assert.Equal(t, 2, g.runs)
}

func TestIdempotencyStoresClientErrors(t *testing.T) {
	g := guard(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnprocessableEntity) })

	g.post("k-5", `{}`)
	rec := g.post("k-5", `{}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(ReplayHeader))
	assert.Equal(t, 1, g.runs)
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	g := guard(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })

	huge := `{"notes":"` + strings.Repeat("x", validators.MaxBodyBytes) + `"}`
	rec := g.post("k-big", huge)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
	assert.Zero(t, g.runs)
	assert.Empty(t, g.records.keys)
}
