package bootstrap

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/app/dto"
	bookingapp "locadz/internal/app/handlers/booking"
	paymentsapp "locadz/internal/app/handlers/payments"
	domainavailability "locadz/internal/domain/availability"
	domainlistings "locadz/internal/domain/listings"
	domainpricing "locadz/internal/domain/pricing"
	"locadz/internal/domain/shared/money"
	"locadz/internal/domain/user"
	"locadz/internal/infra/config"
	ginserver "locadz/internal/infra/http/gin"
	"locadz/internal/infra/obs"
	"locadz/internal/infra/security"
	"locadz/internal/infra/storage/memory"
)

var fixedNow = time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type harness struct {
	t        *testing.T
	router   *gin.Engine
	verifier *security.TokenVerifier
	outbox   *memory.Outbox
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		FeeRates:       domainpricing.DefaultFeeRates,
		Currency:       money.DefaultCurrency,
		Availability:   domainavailability.DefaultPolicy,
		LockTTL:        5 * time.Second,
		IdempotencyTTL: time.Hour,
		MaxProofBytes:  1 << 20,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testConfig()
	store := memory.NewStore()
	store.SeedListings(&domainlistings.Listing{
		ID:          "listing-1",
		Host:        "host-1",
		Title:       "Villa in Tipaza",
		NightlyRate: money.Must(15000, "DZD"),
		GuestsLimit: 4,
		State:       domainlistings.ListingActive,
	})
	backends := MemoryBackends(cfg, store)
	verifier, err := security.NewTokenVerifier("test-secret", "")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := NewApplication(Options{
		Config:   cfg,
		Backends: backends,
		Verifier: verifier,
		Logger:   logger,
		Clock:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	router := ginserver.NewRouter(cfg, obs.Middleware{}, obs.HealthHandlers{}, app.Handlers)
	return &harness{t: t, router: router, verifier: verifier, outbox: backends.Outbox.(*memory.Outbox)}
}

func (h *harness) token(id string, role user.Role) string {
	h.t.Helper()
	tok, err := h.verifier.Issue(user.Actor{ID: user.ID(id), Role: role}, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.serve(req, token, headers)
}

func (h *harness) upload(path, token string, content []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "receipt.png")
	require.NoError(h.t, err)
	_, err = part.Write(content)
	require.NoError(h.t, err)
	require.NoError(h.t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return h.serve(req, token, nil)
}

func (h *harness) serve(req *http.Request, token string, headers map[string]string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bookingBody(checkIn, checkOut string) map[string]any {
	return map[string]any{
		"listing_id":     "listing-1",
		"check_in":       checkIn,
		"check_out":      checkOut,
		"guests":         2,
		"payment_method": "BARIDIMOB",
	}
}

func (h *harness) createBooking(token, checkIn, checkOut string) bookingapp.RequestBookingResult {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/bookings", token, bookingBody(checkIn, checkOut), nil)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[bookingapp.RequestBookingResult](h.t, rec)
}

func TestBookingToPaidFlowFeedsRevenue(t *testing.T) {
	h := newHarness(t)
	traveler := h.token("traveler-1", user.RoleTraveler)
	other := h.token("traveler-2", user.RoleTraveler)
	host := h.token("host-1", user.RoleHost)
	admin := h.token("admin-1", user.RoleAdmin)

	created := h.createBooking(traveler, "2025-06-10", "2025-06-15")
	assert.Equal(t, "PENDING_APPROVAL", created.Status)

	rec := h.do(http.MethodPost, "/api/v1/host/bookings/"+created.BookingID+"/approve", host, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "APPROVED", decode[bookingapp.BookingActionResult](t, rec).Status)

	rec = h.do(http.MethodPost, "/api/v1/bookings", other, bookingBody("2025-06-14", "2025-06-20"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	h.createBooking(other, "2025-06-16", "2025-06-20")

	rec = h.upload("/api/v1/bookings/"+created.BookingID+"/payment-proofs", traveler, pngBytes)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	proof := decode[paymentsapp.SubmitPaymentProofResult](t, rec)
	assert.Equal(t, "PENDING", proof.Status)

	rec = h.do(http.MethodGet, "/api/v1/admin/payment-proofs", admin, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	queue := decode[dto.PaymentProofCollection](t, rec)
	require.Len(t, queue.Items, 1)
	assert.Equal(t, proof.ProofID, queue.Items[0].ID)
	assert.NotEmpty(t, queue.Items[0].EvidenceURL)

	rec = h.do(http.MethodPost, "/api/v1/admin/payment-proofs/"+proof.ProofID+"/approve", admin, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/me/bookings", traveler, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[dto.BookingCollection](t, rec)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "PAID", mine.Items[0].Status)

	rec = h.do(http.MethodGet, "/api/v1/admin/stats", admin, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[dto.PlatformStats](t, rec)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, int64(81000), stats.TotalVolume.Amount)
	assert.Equal(t, int64(13500), stats.TotalCommission.Amount)

	rec = h.do(http.MethodGet, "/api/v1/host/revenue?listing_id=listing-1", host, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	revenue := decode[dto.HostRevenue](t, rec)
	assert.Equal(t, int64(67500), revenue.Revenue.Amount)
	assert.Equal(t, 1, revenue.Count)

	names := make([]string, 0)
	for _, rec := range h.outbox.Published() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "booking.requested")
	assert.Contains(t, names, "booking.paid")
}

func TestRejectedBookingRefusesPaymentProof(t *testing.T) {
	h := newHarness(t)
	traveler := h.token("traveler-1", user.RoleTraveler)
	host := h.token("host-1", user.RoleHost)

	created := h.createBooking(traveler, "2025-06-10", "2025-06-12")
	rec := h.do(http.MethodPost, "/api/v1/host/bookings/"+created.BookingID+"/reject", host, map[string]string{"reason": "maintenance"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "REJECTED", decode[bookingapp.BookingActionResult](t, rec).Status)

	rec = h.upload("/api/v1/bookings/"+created.BookingID+"/payment-proofs", traveler, pngBytes)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/v1/host/bookings/"+created.BookingID+"/approve", host, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "a decided booking cannot be decided again")
}

func TestDuplicatePendingRequestIsReplaced(t *testing.T) {
	h := newHarness(t)
	traveler := h.token("traveler-1", user.RoleTraveler)
	host := h.token("host-1", user.RoleHost)

	first := h.createBooking(traveler, "2025-06-10", "2025-06-12")
	second := h.createBooking(traveler, "2025-06-10", "2025-06-12")
	assert.NotEqual(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.BookingID, second.Replaced)

	rec := h.do(http.MethodGet, "/api/v1/host/bookings", host, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pending := decode[dto.BookingCollection](t, rec)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, second.BookingID, pending.Items[0].ID)
}

func TestIdempotencyKeyReplaysFirstResult(t *testing.T) {
	h := newHarness(t)
	traveler := h.token("traveler-1", user.RoleTraveler)
	headers := map[string]string{"Idempotency-Key": "form-42"}

	rec := h.do(http.MethodPost, "/api/v1/bookings", traveler, bookingBody("2025-06-10", "2025-06-12"), headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[bookingapp.RequestBookingResult](t, rec)

	rec = h.do(http.MethodPost, "/api/v1/bookings", traveler, bookingBody("2025-06-10", "2025-06-12"), headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	replayed := decode[bookingapp.RequestBookingResult](t, rec)
	assert.Equal(t, first.BookingID, replayed.BookingID)
	assert.Empty(t, replayed.Replaced)
}

func TestHostIsNotifiedOfNewRequest(t *testing.T) {
	h := newHarness(t)
	traveler := h.token("traveler-1", user.RoleTraveler)
	host := h.token("host-1", user.RoleHost)
	h.createBooking(traveler, "2025-06-10", "2025-06-12")

	rec := h.do(http.MethodGet, "/api/v1/me/notifications", host, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inbox := decode[dto.NotificationCollection](t, rec)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, "booking_created", inbox.Items[0].Type)
	assert.Equal(t, 1, inbox.Unread)

	rec = h.do(http.MethodPost, "/api/v1/me/notifications/"+inbox.Items[0].ID+"/read", host, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/me/notifications", host, nil, nil)
	assert.Equal(t, 0, decode[dto.NotificationCollection](t, rec).Unread)
}

func TestAccessControl(t *testing.T) {
	h := newHarness(t)
	traveler := h.token("traveler-1", user.RoleTraveler)
	stranger := h.token("host-2", user.RoleHost)

	rec := h.do(http.MethodPost, "/api/v1/bookings", "", bookingBody("2025-06-10", "2025-06-12"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/admin/stats", traveler, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	created := h.createBooking(traveler, "2025-06-10", "2025-06-12")
	rec = h.do(http.MethodPost, "/api/v1/host/bookings/"+created.BookingID+"/approve", stranger, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/v1/admin/bookings/"+created.BookingID+"/cancel", traveler, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicListingEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/listings/listing-1/quote?check_in=2025-06-10&check_out=2025-06-13", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[dto.Quote](t, rec)
	assert.Equal(t, int64(45000), quote.Price.BasePrice.Amount)
	assert.Equal(t, int64(3600), quote.Price.ServiceFeeClient.Amount)
	assert.Equal(t, int64(48600), quote.Price.TotalPrice.Amount)
	assert.Equal(t, int64(8100), quote.Price.CommissionFee.Amount)

	rec = h.do(http.MethodGet, "/api/v1/listings/listing-1/availability?check_in=2025-06-10&check_out=2025-06-13", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[dto.Availability](t, rec).Available)

	rec = h.do(http.MethodGet, "/api/v1/listings/listing-1/quote?check_in=junk&check_out=2025-06-13", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/listings/missing", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidBookingRequestIsRejectedBeforeWrites(t *testing.T) {
	h := newHarness(t)
	traveler := h.token("traveler-1", user.RoleTraveler)

	body := bookingBody("2025-06-12", "2025-06-10")
	rec := h.do(http.MethodPost, "/api/v1/bookings", traveler, body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	body = bookingBody("2025-06-10", "2025-06-12")
	body["payment_method"] = "CASH"
	rec = h.do(http.MethodPost, "/api/v1/bookings", traveler, body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	assert.Empty(t, h.outbox.Published())
}

func TestInvalidAvailabilityPolicyIsRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Availability = domainavailability.Policy{Mode: cfg.Availability.Mode}

	_, err := NewApplication(Options{
		Config:   cfg,
		Backends: MemoryBackends(cfg, memory.NewStore()),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainavailability.ErrEmptyBlockingSet)
}
