package sales

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"boozstudio/internal/domain"
	"boozstudio/internal/modules/pricing"
)

type MockReservationSource struct {
	mock.Mock
}

func (m *MockReservationSource) ListReservations(ctx context.Context) ([]domain.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func reservation(ref domain.PackageRef, method domain.PaymentMethod, charged int64, status domain.SessionStatus) domain.Session {
	user := "u-1"
	return domain.Session{
		UserID:        &user,
		PackageRef:    ref,
		PaymentMethod: method,
		AmountCharged: charged,
		Status:        status,
		ScheduledAt:   time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC),
	}
}

func sampleSet() []domain.Session {
	var rows []domain.Session
	for i := 0; i < 3; i++ {
		rows = append(rows, reservation(domain.PackageLMV, domain.PaymentPackage, 1099, domain.SessionActive))
	}
	for i := 0; i < 2; i++ {
		rows = append(rows, reservation(domain.PackageMJ, domain.PaymentPackage, 699, domain.SessionActive))
	}
	rows = append(rows, reservation(domain.PackageSuelta, domain.PaymentSingle, 95, domain.SessionActive))
	return rows
}

func TestComputeSalesSummary(t *testing.T) {
	sum := ComputeSalesSummary(sampleSet(), pricing.Default())

	assert.Equal(t, 3, sum.LMV)
	assert.Equal(t, 2, sum.MJ)
	assert.Equal(t, 1, sum.SUELTA)
	assert.Equal(t, int64(3*1099+2*699+95), sum.TotalRevenue)
	assert.Equal(t, int64(4790), sum.TotalRevenue)
	assert.Equal(t, sum.TotalRevenue, sum.ChargedRevenue)
}

func TestComputeSalesSummary_SkipsOpenAndCancelled(t *testing.T) {
	rows := sampleSet()
	rows = append(rows,
		domain.Session{PackageRef: domain.PackageLMV, Status: domain.SessionOpen},
		reservation(domain.PackageMJ, domain.PaymentPackage, 699, domain.SessionCancelled),
		reservation(domain.PackageMJ, domain.PaymentCredit, 0, domain.SessionActive),
		reservation(domain.PackageSuelta, domain.PaymentSample, 150, domain.SessionActive),
	)

	sum := ComputeSalesSummary(rows, pricing.Default())

	assert.Equal(t, 3, sum.LMV)
	assert.Equal(t, 3, sum.MJ)
	assert.Equal(t, 2, sum.SUELTA)
	assert.Equal(t, 1, sum.Cancelled)
	assert.Equal(t, 1, sum.CreditBookings)
	assert.Equal(t, 1, sum.Samples)
	assert.Equal(t, int64(4790+699+95), sum.TotalRevenue)
	assert.Equal(t, int64(4790+150), sum.ChargedRevenue)
}

func TestComputeSalesSummary_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, ComputeSalesSummary(nil, pricing.Default()))
}

func TestService_Summary(t *testing.T) {
	src := new(MockReservationSource)
	src.On("ListReservations", mock.Anything).Return(sampleSet(), nil).Once()

	svc := NewService(src, pricing.Default(), zerolog.Nop())
	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4790), sum.TotalRevenue)
	src.AssertExpectations(t)
}

func TestHandler_Summary(t *testing.T) {
	gin.SetMode(gin.TestMode)

	src := new(MockReservationSource)
	src.On("ListReservations", mock.Anything).Return(sampleSet(), nil).Once()
	src.On("ListReservations", mock.Anything).Return(nil, errors.New("db down")).Once()

	r := gin.New()
	NewHandler(NewService(src, pricing.Default(), zerolog.Nop())).RegisterAdminRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{
		"LMV":3,"MJ":2,"SUELTA":1,"totalRevenue":4790,
		"charged_revenue":4790,"credit_bookings":0,"samples":0,"cancelled":0}}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales/summary", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	src.AssertExpectations(t)
}
