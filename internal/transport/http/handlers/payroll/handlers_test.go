package payrollhandler

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
	"hrms/internal/domain/payroll"
	"hrms/internal/transport/http/middleware"
)

type fakeService struct {
	Service
	finalized int
	filters   []payroll.RecordFilter
	exported  []string
}

func (f *fakeService) FinalizeRecord(_ context.Context, _, id string) (payroll.Record, error) {
	if f.finalized > 0 {
		return payroll.Record{}, payroll.ErrRecordFinalized
	}
	f.finalized++
	return payroll.Record{ID: id, Status: "finalized", IsFinal: true}, nil
}

func (f *fakeService) ListRecords(_ context.Context, user auth.UserContext, filter payroll.RecordFilter) (payroll.RecordList, error) {
	if !user.IsAdmin() {
		filter.EmployeeID = user.EmployeeID
	}
	f.filters = append(f.filters, filter)
	return payroll.RecordList{Records: []payroll.Record{}}, nil
}

func (f *fakeService) Payslip(_ context.Context, user auth.UserContext, id string) (payroll.Record, []byte, error) {
	if !user.IsAdmin() && user.EmployeeID != "e1" {
		return payroll.Record{}, nil, payroll.ErrRecordNotFound
	}
	return payroll.Record{ID: id, EmployeeNumber: "EMP001", Period: "2025-01"}, []byte("%PDF-1.3"), nil
}

func (f *fakeService) ExportPeriod(_ context.Context, period string) ([]byte, error) {
	f.exported = append(f.exported, period)
	return []byte("PK"), nil
}

func (f *fakeService) Calculate(in payroll.Input) (payroll.Breakdown, error) {
	if err := in.Validate(); err != nil {
		return payroll.Breakdown{}, err
	}
	return payroll.Compute(in, payroll.DefaultRates()), nil
}

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

func (f *fakeService) Periods(context.Context) (payroll.PeriodList, error) {
	return payroll.PeriodList{
		Periods:    []string{"2025-02", "2025-01"},
		Statistics: []payroll.PeriodStats{{Period: "2025-02", EmployeeCount: 3}, {Period: "2025-01", EmployeeCount: 2}},
	}, nil
}

func newRouter(svc *fakeService, user auth.UserContext) http.Handler {
	keys := &memoryKeys{data: map[string]json.RawMessage{}, hash: map[string]string{}}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	NewHandler(svc, keys).RegisterRoutes(r)
	return r
}

func do(router http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var (
	admin    = auth.UserContext{UserID: "a1", Role: auth.RoleAdmin}
	employee = auth.UserContext{UserID: "u1", Role: auth.RoleUser, EmployeeID: "e1"}
)

func TestPayslipIsPDF(t *testing.T) {
	router := newRouter(&fakeService{}, employee)
	rec := do(router, http.MethodGet, "/payroll/records/r1/payslip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-EMP001-2025-01.pdf")
	assert.Equal(t, "%PDF-1.3", rec.Body.String())

	other := newRouter(&fakeService{}, auth.UserContext{UserID: "u2", Role: auth.RoleUser, EmployeeID: "e2"})
	rec = do(other, http.MethodGet, "/payroll/records/r1/payslip", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportValidatesPeriod(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, admin)

	rec := do(router, http.MethodGet, "/payroll/export?period=2025-13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "period")
	assert.Empty(t, svc.exported)

	rec = do(router, http.MethodGet, "/payroll/export?period=2025-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"2025-02"}, svc.exported)
}

func TestExportNeedsWritePermission(t *testing.T) {
	router := newRouter(&fakeService{}, employee)
	rec := do(router, http.MethodGet, "/payroll/export?period=2025-02", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFinalizeReplaysAndRejectsRepeat(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, admin)

	rec := do(router, http.MethodPost, "/payroll/records/r1/finalize", "", "Idempotency-Key", "fin-r1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, "/payroll/records/r1/finalize", "", "Idempotency-Key", "fin-r1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isFinal":true`)
	assert.Equal(t, 1, svc.finalized)

	rec = do(router, http.MethodPost, "/payroll/records/r1/finalize", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "payroll_record_finalized")
}

func TestFinalizeNeedsAdmin(t *testing.T) {
	router := newRouter(&fakeService{}, employee)
	rec := do(router, http.MethodPost, "/payroll/records/r1/finalize", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListScopesUsers(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, employee)
	rec := do(router, http.MethodGet, "/payroll/records?employeeId=e9&year=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.filters, 1)
	assert.Equal(t, "e1", svc.filters[0].EmployeeID)
	assert.Equal(t, 2025, svc.filters[0].Year)

	rec = do(router, http.MethodGet, "/payroll/records?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculatePreview(t *testing.T) {
	router := newRouter(&fakeService{}, admin)
	rec := do(router, http.MethodPost, "/payroll/calculate", `{"basicSalary":"3000000","mealAllowance":"200000"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data payroll.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, decimal.RequireFromString("3200000").Equal(envelope.Data.GrossPay))

	rec = do(router, http.MethodPost, "/payroll/calculate", `{"basicSalary":"3000000","unionFee":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unionFee")
}

func TestPayrollPeriods(t *testing.T) {
	rec := do(newRouter(&fakeService{}, admin), http.MethodGet, "/payroll-periods", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"periods":["2025-02","2025-01"]`)
	assert.Contains(t, rec.Body.String(), `"employeeCount":3`)

	rec = do(newRouter(&fakeService{}, employee), http.MethodGet, "/payroll-periods", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
