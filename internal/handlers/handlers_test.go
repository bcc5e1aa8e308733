package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/beauty-meet/internal/audit"
	"github.com/BruksfildServices01/beauty-meet/internal/config"
	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway/gatewaytest"
	"github.com/BruksfildServices01/beauty-meet/internal/infra/memory"
	"github.com/BruksfildServices01/beauty-meet/internal/middleware"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
	"github.com/BruksfildServices01/beauty-meet/internal/pricing"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/autocharge"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/webhook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	store    *memory.Store
	gw       *gatewaytest.Fake
	engine   *booking.Engine
	provider models.Provider
	service  models.Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		gw:    gatewaytest.New(),
		now:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.provider = f.store.PutProvider(models.Provider{
		DisplayName: "Lash Lab",
		Phone:       "+15550000001",
		BaseZip:     "10001",
		Active:      true,
		AccessToken: "prov-token",
	})
	f.service = f.store.PutService(models.Service{
		ProviderID: f.provider.ID,
		Name:       "Classic Lashes",
		PriceCents: 12000,
		Active:     true,
	})
	f.engine = booking.NewEngine(booking.Deps{
		Repo:    f.store,
		Gateway: f.gw,
		Log:     zaptest.NewLogger(t),
		Now:     func() time.Time { return f.now },
	}, booking.Config{Rates: pricing.DefaultRates(), BaseURL: "https://example.test"})
	return f
}

func (f *fixture) pendingBooking() models.Booking {
	return f.store.PutBooking(models.Booking{
		ProviderID:           f.provider.ID,
		CustomerID:           "cust-1",
		ServiceID:            f.service.ID,
		StartAt:              f.now.Add(24 * time.Hour),
		Status:               string(domain.StatusPending),
		ServicePriceCents:    12000,
		DepositCents:         3090,
		CustomerConfirmToken: "confirm-tok",
	})
}

func do(r *gin.Engine, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ======================================================
// BOOKINGS
// ======================================================

func TestBookingHandler_Create(t *testing.T) {
	f := newFixture(t)
	h := NewBookingHandler(f.engine, "America/New_York")
	r := gin.New()
	r.POST("/bookings", h.Create)

	w := do(r, http.MethodPost, "/bookings", gin.H{
		"provider_id": f.provider.ID,
		"service_id":  f.service.ID,
		"full_name":   "Ana Souza",
		"phone":       "(555) 123-4567",
		"zip":         "10001",
		"date":        "2026-03-12",
		"time":        "10:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.NotEmpty(t, body["redirect_url"])
	assert.Equal(t, false, body["demo"])

	quote := body["quote"].(map[string]any)
	assert.EqualValues(t, 3090, quote["deposit_cents"])
	assert.EqualValues(t, 12360, quote["total_cents"])

	b := body["booking"].(map[string]any)
	startAt, err := time.Parse(time.RFC3339, b["start_at"].(string))
	require.NoError(t, err)
	assert.True(t, startAt.Equal(time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)), startAt)
	assert.Equal(t, string(domain.StatusPending), b["status"])
}

func TestBookingHandler_CreateRejects(t *testing.T) {
	f := newFixture(t)
	h := NewBookingHandler(f.engine, "America/New_York")
	r := gin.New()
	r.POST("/bookings", h.Create)

	tests := []struct {
		name string
		body gin.H
		code string
	}{
		{"missing fields", gin.H{"full_name": "Ana"}, "invalid_request"},
		{"bad date", gin.H{
			"provider_id": f.provider.ID, "service_id": f.service.ID, "full_name": "Ana Souza",
			"phone": "5551234567", "zip": "10001", "date": "12/03/2026", "time": "10:00",
		}, "invalid_date_time"},
		{"bad phone", gin.H{
			"provider_id": f.provider.ID, "service_id": f.service.ID, "full_name": "Ana Souza",
			"phone": "123", "zip": "10001", "date": "2026-03-12", "time": "10:00",
		}, "invalid_phone"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/bookings", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, decode(t, w)["error_code"])
		})
	}
}

func TestBookingHandler_TokenLinks(t *testing.T) {
	f := newFixture(t)
	h := NewBookingHandler(f.engine, "America/New_York")
	r := gin.New()
	r.POST("/confirm/:token", h.Confirm)
	r.POST("/cancel/:token", h.Cancel)
	r.POST("/issue/:token", h.ReportIssue)

	for _, path := range []string{"/confirm/nope", "/cancel/nope", "/issue/nope"} {
		w := do(r, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "invalid_link", decode(t, w)["error_code"], path)
	}

	b := f.pendingBooking()
	b.Status = string(domain.StatusApproved)
	f.store.PutBooking(b)

	w := do(r, http.MethodPost, "/confirm/confirm-tok", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)["booking"].(map[string]any)
	assert.NotNil(t, got["customer_confirmed_at"])
}

// ======================================================
// PROVIDER
// ======================================================

func providerRouter(f *fixture) *gin.Engine {
	r := gin.New()
	h := NewProviderHandler(f.engine)
	r.POST("/provider/:token/bookings/:id/:action", middleware.ProviderToken(f.store), h.Action)
	return r
}

func TestProviderHandler_Approve(t *testing.T) {
	f := newFixture(t)
	b := f.pendingBooking()
	r := providerRouter(f)

	w := do(r, http.MethodPost, "/provider/prov-token/bookings/"+b.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)["booking"].(map[string]any)
	assert.Equal(t, string(domain.StatusApproved), got["status"])
}

func TestProviderHandler_Rejects(t *testing.T) {
	f := newFixture(t)
	b := f.pendingBooking()
	other := f.store.PutProvider(models.Provider{DisplayName: "Other", Active: true, AccessToken: "other-token"})
	r := providerRouter(f)

	w := do(r, http.MethodPost, "/provider/prov-token/bookings/"+b.ID+"/explode", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_action", decode(t, w)["error_code"])

	w = do(r, http.MethodPost, "/provider/"+other.AccessToken+"/bookings/"+b.ID+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/provider/bad/bookings/"+b.ID+"/approve", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ======================================================
// ADMIN
// ======================================================

type stubSweeper struct {
	report *autocharge.Report
	err    error
}

func (s stubSweeper) Run(context.Context) (*autocharge.Report, error) { return s.report, s.err }

func adminRouter(t *testing.T, f *fixture, sweeper Sweeper) *gin.Engine {
	r := gin.New()
	h := NewAdminHandler(f.engine, sweeper, zaptest.NewLogger(t))
	r.POST("/admin/bookings/:id/action", h.Action)
	r.POST("/admin/issues/:id/resolve", h.ResolveIssue)
	r.GET("/admin/issues", h.ListIssues)
	r.POST("/admin/autocharge", h.AutoCharge)
	return r
}

func TestAdminHandler_Action(t *testing.T) {
	f := newFixture(t)
	b := f.pendingBooking()
	r := adminRouter(t, f, stubSweeper{})

	w := do(r, http.MethodPost, "/admin/bookings/"+b.ID+"/action", gin.H{"kind": "approve"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/admin/bookings/"+b.ID+"/action", gin.H{
		"kind":     "reschedule",
		"start_at": "2026-03-20T15:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)["booking"].(map[string]any)
	assert.Equal(t, "2026-03-20T15:00:00Z", got["start_at"])

	w = do(r, http.MethodPost, "/admin/bookings/"+b.ID+"/action", gin.H{"kind": "reschedule", "start_at": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_start_at", decode(t, w)["error_code"])

	w = do(r, http.MethodPost, "/admin/bookings/missing/action", gin.H{"kind": "approve"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_ChargeFailureStatus(t *testing.T) {
	f := newFixture(t)
	b := f.pendingBooking()
	b.Status = string(domain.StatusApproved)
	f.store.PutBooking(b)
	f.store.PutPayment(models.Payment{
		BookingID:   b.ID,
		Type:        string(payment.TypeDeposit),
		Status:      string(payment.StatusCaptured),
		AmountCents: 3090,
		Currency:    "USD",
	})
	r := adminRouter(t, f, stubSweeper{})

	// No saved payment method on file.
	w := do(r, http.MethodPost, "/admin/bookings/"+b.ID+"/action", gin.H{"kind": "retry_remainder"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "missing_saved_payment_method", decode(t, w)["error_code"])
}

func TestAdminHandler_Issues(t *testing.T) {
	f := newFixture(t)
	reported := f.now.Add(-time.Hour)
	b := f.pendingBooking()
	b.Status = string(domain.StatusApproved)
	b.IssueReportedAt = &reported
	f.store.PutBooking(b)
	r := adminRouter(t, f, stubSweeper{})

	w := do(r, http.MethodGet, "/admin/issues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])

	w = do(r, http.MethodPost, "/admin/issues/"+b.ID+"/resolve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)["booking"].(map[string]any)
	assert.Nil(t, got["issue_reported_at"])
}

func TestAdminHandler_AutoCharge(t *testing.T) {
	f := newFixture(t)

	r := adminRouter(t, f, stubSweeper{report: &autocharge.Report{Scanned: 2, Charged: 1, Failed: 1}})
	w := do(r, http.MethodPost, "/admin/autocharge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["scanned"])
	assert.EqualValues(t, 1, body["charged"])

	r = adminRouter(t, f, stubSweeper{err: errors.New("db down")})
	w = do(r, http.MethodPost, "/admin/autocharge", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ======================================================
// AUTH
// ======================================================

func TestAuthHandler_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("2468"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{JWTSecret: "secret", AdminPINHash: string(hash)}

	r := gin.New()
	r.POST("/login", NewAuthHandler(cfg).Login)
	r.GET("/admin", middleware.AdminAuth("secret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := do(r, http.MethodPost, "/login", gin.H{"pin": "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/login", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/login", gin.H{"pin": "2468"})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = do(r, http.MethodGet, "/admin", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthHandler_LoginDisabled(t *testing.T) {
	r := gin.New()
	r.POST("/login", NewAuthHandler(&config.Config{JWTSecret: "secret"}).Login)

	w := do(r, http.MethodPost, "/login", gin.H{"pin": "2468"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "admin_login_disabled", decode(t, w)["error_code"])
}

// ======================================================
// AUDIT LOGS
// ======================================================

type recordingReader struct {
	filter audit.Filter
	err    error
}

func (r *recordingReader) List(_ context.Context, f audit.Filter) ([]models.AuditLog, int64, error) {
	r.filter = f
	if r.err != nil {
		return nil, 0, r.err
	}
	return []models.AuditLog{{ID: 1, BookingID: "b-1", Action: "booking.approved"}}, 7, nil
}

func TestAuditLogsHandler_List(t *testing.T) {
	reader := &recordingReader{}
	r := gin.New()
	r.GET("/logs", NewAuditLogsHandler(reader, "America/New_York").List)

	w := do(r, http.MethodGet, "/logs?booking_id=b-1&action=booking.approved&page=3&limit=20&from=2026-03-01&to=2026-03-02", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 7, body["total"])
	assert.EqualValues(t, 3, body["page"])
	assert.Len(t, body["logs"], 1)

	f := reader.filter
	assert.Equal(t, "b-1", f.BookingID)
	assert.Equal(t, "booking.approved", f.Action)
	assert.Equal(t, 20, f.Limit)
	assert.Equal(t, 40, f.Offset)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC), f.From.UTC())
	assert.Equal(t, time.Date(2026, 3, 3, 5, 0, 0, 0, time.UTC), f.To.UTC())
}

func TestAuditLogsHandler_ClampsPaging(t *testing.T) {
	reader := &recordingReader{}
	r := gin.New()
	r.GET("/logs", NewAuditLogsHandler(reader, "America/New_York").List)

	w := do(r, http.MethodGet, "/logs?page=-1&limit=1000&from=yesterday", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, reader.filter.Limit)
	assert.Zero(t, reader.filter.Offset)
	assert.Nil(t, reader.filter.From)

	reader.err = errors.New("db down")
	w = do(r, http.MethodGet, "/logs", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ======================================================
// WEBHOOK
// ======================================================

func TestWebhookHandler_Stripe(t *testing.T) {
	f := newFixture(t)
	b := f.pendingBooking()
	deposit := f.store.PutPayment(models.Payment{
		BookingID:   b.ID,
		Type:        string(payment.TypeDeposit),
		Status:      string(payment.StatusRequiresPayment),
		AmountCents: 3090,
		Currency:    "USD",
	})
	rec := webhook.NewReconciler(webhook.Deps{Repo: f.store, Gateway: f.gw, Engine: f.engine})

	r := gin.New()
	r.POST("/webhook", NewWebhookHandler(rec, zaptest.NewLogger(t)).Stripe)

	send := func(payload []byte, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", sig)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	payload := gatewaytest.Payload(gateway.Event{
		ID:         "evt_1",
		Type:       "checkout.session.completed",
		Kind:       gateway.EventCheckoutCompleted,
		BookingID:  b.ID,
		PaymentID:  deposit.ID,
		PaymentRef: "pi_dep",
	})

	w := send(payload, "forged")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_signature", decode(t, w)["error_code"])

	w = send(payload, gatewaytest.Signature)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(webhook.OutcomeProcessed), decode(t, w)["outcome"])

	w = send(payload, gatewaytest.Signature)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(webhook.OutcomeDuplicate), decode(t, w)["outcome"])

	p, err := f.store.GetPayment(context.Background(), deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payment.StatusCaptured), p.Status)
}

// ======================================================
// PUBLIC
// ======================================================

func TestPublicHandler_ListServices(t *testing.T) {
	f := newFixture(t)
	f.store.PutService(models.Service{ProviderID: f.provider.ID, Name: "Brow Lamination", PriceCents: 8000, Active: true})
	f.store.PutService(models.Service{ProviderID: f.provider.ID, Name: "Lash Removal", PriceCents: 3000})
	inactive := f.store.PutProvider(models.Provider{DisplayName: "Closed", Active: false})

	r := gin.New()
	r.GET("/providers/:id/services", NewPublicHandler(f.store).ListServices)

	w := do(r, http.MethodGet, "/providers/"+f.provider.ID+"/services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	services := decode(t, w)["services"].([]any)
	require.Len(t, services, 2)
	assert.Equal(t, "Brow Lamination", services[0].(map[string]any)["name"])

	w = do(r, http.MethodGet, "/providers/"+f.provider.ID+"/services?query=LASH", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["services"], 1)

	w = do(r, http.MethodGet, "/providers/"+inactive.ID+"/services", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/providers/missing/services", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
