package bonushandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/bonus"
	"hrms/internal/transport/http/middleware"
)

type fakeService struct {
	Service
	payments []bonus.PaymentInput
	policies []bonus.PolicyInput
	paid     bool
}

func (f *fakeService) CreatePolicy(_ context.Context, _ string, in bonus.PolicyInput) (bonus.Policy, error) {
	if err := bonus.ValidateRatios(in.Ratios()); err != nil {
		return bonus.Policy{}, err
	}
	f.policies = append(f.policies, in)
	return bonus.Policy{ID: "p1", Name: in.Name}, nil
}

func (f *fakeService) PayDistribution(_ context.Context, _, id string, in bonus.PaymentInput) (bonus.Payment, error) {
	if f.paid {
		return bonus.Payment{}, bonus.ErrAlreadyPaid
	}
	f.paid = true
	f.payments = append(f.payments, in)
	return bonus.Payment{ID: "pay1", DistributionID: id, PaymentMethod: in.PaymentMethod}, nil
}

func (f *fakeService) DeleteCalculation(context.Context, string, string) error {
	return bonus.ErrHasPayments
}

func (f *fakeService) MyBonusHistory(_ context.Context, employeeID string) ([]bonus.HistoryEntry, error) {
	if employeeID == "" {
		return nil, bonus.ErrNoEmployee
	}
	return []bonus.HistoryEntry{}, nil
}

type counter map[string]int

func (c counter) Inc(event string) { c[event]++ }

type memoryKeys struct {
	data map[string]json.RawMessage
	hash map[string]string
}

func (m *memoryKeys) Check(_ context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	id := userID + endpoint + key
	stored, ok := m.data[id]
	if !ok {
		return nil, false, nil
	}
	if m.hash[id] != requestHash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (m *memoryKeys) Save(_ context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	id := userID + endpoint + key
	m.data[id] = response
	m.hash[id] = requestHash
	return nil
}

type harness struct {
	svc    *fakeService
	events counter
	router http.Handler
}

func newHarness(user auth.UserContext) *harness {
	h := &harness{svc: &fakeService{}, events: counter{}}
	keys := &memoryKeys{data: map[string]json.RawMessage{}, hash: map[string]string{}}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	NewHandler(h.svc, keys, h.events).RegisterRoutes(r)
	h.router = r
	return h
}

func (h *harness) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

var admin = auth.UserContext{UserID: "a1", Role: auth.RoleAdmin}

func TestCreatePolicyRejectsBadRatios(t *testing.T) {
	h := newHarness(admin)
	rec := h.do(http.MethodPost, "/bonus-policies/", `{"name":"p","policyType":"annual","ratioBase":50,"ratioTeam":20,"ratioPersonal":20,"ratioCompany":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ratios")
	assert.Empty(t, h.svc.policies)

	rec = h.do(http.MethodPost, "/bonus-policies/", `{"name":"p","policyType":"annual","ratioBase":50,"ratioTeam":20,"ratioPersonal":20,"ratioCompany":10}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestPoliciesNeedManagePermission(t *testing.T) {
	h := newHarness(auth.UserContext{UserID: "u1", Role: auth.RoleUser, EmployeeID: "e1"})
	rec := h.do(http.MethodGet, "/bonus-policies/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/my-bonus-history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMyHistoryWithoutEmployee(t *testing.T) {
	h := newHarness(auth.UserContext{UserID: "u2", Role: auth.RoleUser})
	rec := h.do(http.MethodGet, "/my-bonus-history", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPayIsIdempotent(t *testing.T) {
	h := newHarness(admin)
	body := `{"paymentDate":"2025-02-25","paymentMethod":"bank_transfer","taxAmount":"1000"}`

	rec := h.do(http.MethodPost, "/bonus-distributions/d1/pay", body, "Idempotency-Key", "pay-d1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, h.svc.payments, 1)
	assert.True(t, decimal.RequireFromString("1000").Equal(h.svc.payments[0].TaxAmount))

	rec = h.do(http.MethodPost, "/bonus-distributions/d1/pay", body, "Idempotency-Key", "pay-d1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pay1")
	assert.Len(t, h.svc.payments, 1)
	assert.Equal(t, 1, h.events["bonus.distribution.paid"])

	rec = h.do(http.MethodPost, "/bonus-distributions/d1/pay", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "bonus_distribution_paid")
}

func TestPayValidatesPayload(t *testing.T) {
	h := newHarness(admin)
	rec := h.do(http.MethodPost, "/bonus-distributions/d1/pay", `{"paymentDate":"25/02/2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "paymentMethod")
	assert.Empty(t, h.svc.payments)
}

func TestDeletePaidCalculationConflicts(t *testing.T) {
	h := newHarness(admin)
	rec := h.do(http.MethodDelete, "/bonus-calculations/c1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "bonus_calculation_paid")
}
