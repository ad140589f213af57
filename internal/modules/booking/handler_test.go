package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boozstudio/internal/cache"
	"boozstudio/internal/domain"
	"boozstudio/internal/middleware"
	"boozstudio/internal/modules/pricing"
)

type memoryIdempotency struct {
	mu   sync.Mutex
	done map[string][]byte
	busy map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{done: map[string][]byte{}, busy: map[string]bool{}}
}

func (m *memoryIdempotency) Begin(_ context.Context, scope, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if body, ok := m.done[k]; ok {
		return body, nil
	}
	if m.busy[k] {
		return nil, cache.ErrInProgress
	}
	m.busy[k] = true
	return nil, nil
}

func (m *memoryIdempotency) Finish(_ context.Context, scope, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	delete(m.busy, k)
	m.done[k] = body
	return nil
}

func (m *memoryIdempotency) Abort(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.busy, scope+":"+key)
	return nil
}

// asCaller stands in for JWTAuth: X-Email and X-Role become the request identity.
func asCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, "test", c.GetHeader("X-Email"), c.GetHeader("X-Role"))
		c.Next()
	}
}

func setupRouter(t *testing.T, idem IdempotencyStore) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := setup(t, pricing.CreditCovered)
	h := NewHandler(f.svc, idem, zerolog.Nop())

	r := gin.New()
	api := r.Group("/api/v1", asCaller())
	h.RegisterRoutes(api)
	return r, f
}

func call(r *gin.Engine, method, path, email, body string, headers ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Email", email)
	req.Header.Set("X-Role", string(domain.RoleClient))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	r.ServeHTTP(w, req)
	return w
}

type reserveEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		UserUpdated domain.Account      `json:"user_updated"`
		Reservation ReservationResponse `json:"reservation"`
	} `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) reserveEnvelope {
	t.Helper()
	var env reserveEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestPaymentFrom(t *testing.T) {
	cases := []struct {
		name string
		body ReserveBody
		want Payment
	}{
		{"plan by package id", ReserveBody{PackageID: "LMV"}, PackagePurchase{Kind: domain.PackageLMV}},
		{"drop-in by package id", ReserveBody{PackageID: "SUELTA"}, SingleSession{}},
		{"no hints", ReserveBody{}, SingleSession{}},
		{"explicit credit", ReserveBody{PackageID: "MJ", PaymentMethod: "credit"}, CreditUse{}},
		{"sample", ReserveBody{PaymentMethod: "sample"}, SingleSession{Sample: true}},
		{"explicit package", ReserveBody{PackageID: "mj", PaymentMethod: "package"}, PackagePurchase{Kind: domain.PackageMJ}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := paymentFrom(tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := paymentFrom(ReserveBody{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrMalformedSelection)
	_, err = paymentFrom(ReserveBody{PaymentMethod: "package"})
	assert.ErrorIs(t, err, ErrMalformedSelection)
}

func TestHandler_ReserveAndCancel(t *testing.T) {
	r, f := setupRouter(t, nil)
	f.account(t, "ana@booz.com", 200)
	ses := f.single(t, "2025-01-06", "10:00")

	w := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com",
		`{"email":"ana@booz.com","package_id":"SUELTA","selection":{"session_id":"`+ses.ID+`"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, int64(105), env.Data.UserUpdated.CreditBalance)
	assert.Equal(t, ses.ID, env.Data.Reservation.ID)
	assert.Equal(t, domain.PaymentSingle, env.Data.Reservation.PaymentMethod)

	w = call(r, http.MethodGet, "/api/v1/reservations/upcoming", "ana@booz.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ses.ID)

	w = call(r, http.MethodPost, "/api/v1/reservations/cancel", "ana@booz.com",
		`{"reservation_id":"`+ses.ID+`","user_email":"ana@booz.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"refund":95`)
	assert.Contains(t, w.Body.String(), `"credit_balance":200`)

	w = call(r, http.MethodGet, "/api/v1/reservations/upcoming", "ana@booz.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"next":null}}`, w.Body.String())
}

func TestHandler_ErrorMapping(t *testing.T) {
	r, f := setupRouter(t, nil)
	f.account(t, "ana@booz.com", 50)
	ses := f.single(t, "2025-01-06", "10:00")
	soon := f.single(t, "2025-01-01", "18:00")

	w := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com",
		`{"email":"ana@booz.com","selection":{"session_id":"`+ses.ID+`"}}`)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", decode(t, w).Error.Code)

	w = call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com",
		`{"email":"ana@booz.com","selection":{"session_id":"nope"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com",
		`{"email":"ana@booz.com","selection":{"hour":"18:00"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com",
		`{"email":"ana@booz.com","payment_method":"credit","selection":{"session_id":"`+soon.ID+`"}}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_ACTIVE_PLAN", decode(t, w).Error.Code)

	w = call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com", `{"selection":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestHandler_WindowClosedIs409(t *testing.T) {
	r, f := setupRouter(t, nil)
	f.account(t, "ana@booz.com", 200)
	soon := f.single(t, "2025-01-01", "18:00")

	w := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com",
		`{"email":"ana@booz.com","selection":{"session_id":"`+soon.ID+`"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/v1/reservations/cancel", "ana@booz.com",
		`{"reservation_id":"`+soon.ID+`","user_email":"ana@booz.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CANCELLATION_WINDOW_CLOSED", decode(t, w).Error.Code)
}

func TestHandler_ClientCannotBookForOthers(t *testing.T) {
	r, f := setupRouter(t, nil)
	f.account(t, "ana@booz.com", 200)
	ses := f.single(t, "2025-01-06", "10:00")

	w := call(r, http.MethodPost, "/api/v1/reservations", "luis@booz.com",
		`{"email":"ana@booz.com","selection":{"session_id":"`+ses.ID+`"}}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodGet, "/api/v1/reservations/upcoming?email=ana@booz.com", "luis@booz.com", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_IdempotentReplay(t *testing.T) {
	idem := newMemoryIdempotency()
	r, f := setupRouter(t, idem)
	acc := f.account(t, "ana@booz.com", 200)
	f.recurring(t, "LMV", "2025-01-06", "18:00", 2)

	body := `{"email":"ana@booz.com","selection":{"date_key":"2025-01-06","hour":"18:00"}}`

	first := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com", body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com", body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	assert.Equal(t, int64(105), f.balance(t, acc.ID), "charged once")
	assert.Len(t, f.openAt(t, "2025-01-06", "18:00"), 1)

	// A new key is a new request.
	third := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com", body, "Idempotency-Key", "k-2")
	assert.Equal(t, http.StatusConflict, third.Code)
	assert.Equal(t, "ALREADY_BOOKED", decode(t, third).Error.Code)
}

func TestHandler_IdempotencyInProgress(t *testing.T) {
	idem := newMemoryIdempotency()
	r, f := setupRouter(t, idem)
	f.account(t, "ana@booz.com", 200)
	ses := f.single(t, "2025-01-06", "10:00")

	_, err := idem.Begin(context.Background(), "ana@booz.com", "k-1")
	require.NoError(t, err)

	w := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com",
		`{"email":"ana@booz.com","selection":{"session_id":"`+ses.ID+`"}}`, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "REQUEST_IN_PROGRESS", decode(t, w).Error.Code)
}

func TestHandler_FailedReserveReleasesKey(t *testing.T) {
	idem := newMemoryIdempotency()
	r, f := setupRouter(t, idem)
	acc := f.account(t, "ana@booz.com", 50)
	ses := f.single(t, "2025-01-06", "10:00")
	body := `{"email":"ana@booz.com","selection":{"session_id":"` + ses.ID + `"}}`

	w := call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com", body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	_, err := f.ledger.GrantCredit(context.Background(), "ana@booz.com", 100, "top up")
	require.NoError(t, err)

	w = call(r, http.MethodPost, "/api/v1/reservations", "ana@booz.com", body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(55), f.balance(t, acc.ID))
}
