package reportshandler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/reports"
	"hrms/internal/transport/http/middleware"
)

type fakeService struct {
	Service
	year, month int
	download    reports.DownloadRequest
}

func (f *fakeService) Summary(_ context.Context, year, month int) (reports.Summary, error) {
	f.year, f.month = year, month
	return reports.Summary{Period: "2025-02"}, nil
}

func (f *fakeService) EmployeeDashboard(_ context.Context, employeeID string) (reports.EmployeeDashboard, error) {
	if employeeID == "" {
		return reports.EmployeeDashboard{}, reports.ErrNoEmployee
	}
	return reports.EmployeeDashboard{EmployeeID: employeeID}, nil
}

func (f *fakeService) Download(_ context.Context, req reports.DownloadRequest) (string, string, []byte, error) {
	f.download = req
	return "hr_report_summary_2025.csv", "text/csv; charset=utf-8", []byte("period,section"), nil
}

func (f *fakeService) AttendanceTrend(context.Context) (reports.AttendanceTrend, error) {
	out := reports.AttendanceTrend{ChartData: []reports.AttendanceTrendPoint{{Period: "2025-02", Year: 2025, Month: 2, Records: 20, AttendanceRate: 75}}}
	out.Summary.TotalMonths = 1
	return out, nil
}

func serve(svc *fakeService, user auth.UserContext, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	NewHandler(svc).RegisterRoutes(r)
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var (
	admin    = auth.UserContext{UserID: "a1", Role: auth.RoleAdmin}
	employee = auth.UserContext{UserID: "u1", Role: auth.RoleUser, EmployeeID: "e1"}
)

func TestSummaryQuery(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, admin, http.MethodGet, "/dashboard/reports/summary?year=2025&month=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, svc.year)
	assert.Equal(t, 2, svc.month)

	rec = serve(svc, admin, http.MethodGet, "/dashboard/reports/summary?month=feb", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminViewsNeedReportsPermission(t *testing.T) {
	rec := serve(&fakeService{}, employee, http.MethodGet, "/dashboard/reports/summary", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(&fakeService{}, employee, http.MethodGet, "/dashboard/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"employeeId":"e1"`)

	rec = serve(&fakeService{}, auth.UserContext{UserID: "u2", Role: auth.RoleUser}, http.MethodGet, "/dashboard/me", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownload(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, admin, http.MethodPost, "/dashboard/reports/download", `{"reportType":"summary","format":"csv","year":2025}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hr_report_summary_2025.csv")
	assert.Equal(t, 2025, svc.download.Year)

	rec = serve(svc, admin, http.MethodPost, "/dashboard/reports/download", `{"format":"docx"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "format")
}

func TestAttendanceTrendChart(t *testing.T) {
	rec := serve(&fakeService{}, admin, http.MethodGet, "/dashboard/charts/attendance-trend", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"attendanceRate":75`)
	assert.Contains(t, rec.Body.String(), `"totalMonths":1`)

	rec = serve(&fakeService{}, employee, http.MethodGet, "/dashboard/charts/attendance-trend", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
