package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"hrms/internal/app/server"
	"hrms/internal/platform/config"
	"hrms/internal/platform/db"
	"hrms/internal/platform/metrics"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

type client struct {
	t       *testing.T
	http    *http.Client
	baseURL string
	token   string
}

func (c *client) do(method, path string, body any, want int, headers ...string) (envelope, *http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		c.t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		c.t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			c.t.Fatalf("failed to decode response: %v", err)
		}
	}
	return env, resp, raw
}

func (c *client) id(env envelope) string {
	c.t.Helper()
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ID == "" {
		c.t.Fatalf("expected an id in %s", string(env.Data))
	}
	return payload.ID
}

func TestLeaveAndPayrollJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		RefreshTTL:         24 * time.Hour,
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		ShutdownTimeout:    time.Second,
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	deps, err := server.Build(cfg, pool, metrics.New())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ts := httptest.NewServer(server.NewRouter(deps))
	defer ts.Close()

	c := &client{t: t, http: ts.Client(), baseURL: ts.URL}
	env, _, _ := c.do(http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    cfg.SeedAdminEmail,
		"password": cfg.SeedAdminPassword,
	}, http.StatusOK)
	var login struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil || login.Token == "" || login.RefreshToken == "" {
		t.Fatalf("expected tokens, got %s", string(env.Data))
	}
	env, _, _ = c.do(http.MethodPost, "/api/v1/auth/refresh", map[string]any{"refreshToken": login.RefreshToken}, http.StatusOK)
	c.do(http.MethodPost, "/api/v1/auth/refresh", map[string]any{"refreshToken": login.RefreshToken}, http.StatusUnauthorized)
	if err := json.Unmarshal(env.Data, &login); err != nil || login.Token == "" {
		t.Fatalf("expected refreshed token, got %s", string(env.Data))
	}
	c.token = login.Token

	suffix := time.Now().UnixNano() % 1_000_000_000
	deptID := c.id(first(c.do(http.MethodPost, "/api/v1/departments", map[string]any{
		"name": "Journey",
		"code": fmt.Sprintf("J%d", suffix),
	}, http.StatusCreated)))
	employeeID := c.id(first(c.do(http.MethodPost, "/api/v1/employees", map[string]any{
		"employeeNumber": fmt.Sprintf("E%d", suffix),
		"name":           "Journey Tester",
		"email":          fmt.Sprintf("journey-%d@example.com", suffix),
		"departmentId":   deptID,
		"hireDate":       "2020-01-02",
	}, http.StatusCreated)))

	// leave: grant, request, approve, balance
	c.do(http.MethodPost, "/api/v1/leave/grants", map[string]any{
		"employeeId": employeeID,
		"year":       2030,
		"totalDays":  15,
	}, http.StatusCreated)
	requestID := c.id(first(c.do(http.MethodPost, "/api/v1/leave/requests", map[string]any{
		"employeeId": employeeID,
		"leaveType":  "annual",
		"startDate":  "2030-03-04",
		"endDate":    "2030-03-05",
	}, http.StatusCreated)))
	c.do(http.MethodPost, "/api/v1/leave/requests/"+requestID+"/approve", map[string]any{}, http.StatusOK)
	c.do(http.MethodPost, "/api/v1/leave/requests/"+requestID+"/approve", map[string]any{}, http.StatusConflict)

	env, _, _ = c.do(http.MethodGet, "/api/v1/leave/balance?employeeId="+employeeID+"&year=2030", nil, http.StatusOK)
	var balance struct {
		Granted   float64 `json:"granted"`
		Used      float64 `json:"used"`
		Remaining float64 `json:"remaining"`
	}
	if err := json.Unmarshal(env.Data, &balance); err != nil {
		t.Fatalf("failed to decode balance: %v", err)
	}
	if balance.Granted != 15 || balance.Used != 2 || balance.Remaining != 13 {
		t.Fatalf("unexpected balance %+v", balance)
	}

	// payroll: create, finalize twice with one key, edit refused, payslip
	recordID := c.id(first(c.do(http.MethodPost, "/api/v1/payroll/records", map[string]any{
		"employeeId":  employeeID,
		"period":      "2030-03",
		"basicSalary": "3000000",
	}, http.StatusCreated)))
	key := fmt.Sprintf("finalize-%d", suffix)
	c.do(http.MethodPost, "/api/v1/payroll/records/"+recordID+"/finalize", nil, http.StatusOK, "Idempotency-Key", key)
	c.do(http.MethodPost, "/api/v1/payroll/records/"+recordID+"/finalize", nil, http.StatusOK, "Idempotency-Key", key)
	c.do(http.MethodPut, "/api/v1/payroll/records/"+recordID, map[string]any{"memo": "late"}, http.StatusConflict)

	_, resp, raw := c.do(http.MethodGet, "/api/v1/payroll/records/"+recordID+"/payslip", nil, http.StatusOK)
	if resp.Header.Get("Content-Type") != "application/pdf" || !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Fatalf("expected a pdf payslip, got %q", resp.Header.Get("Content-Type"))
	}

	env, _, _ = c.do(http.MethodGet, "/api/v1/audit-logs?entityType=payroll_record", nil, http.StatusOK)
	if !strings.Contains(string(env.Data), recordID) {
		t.Fatalf("expected audit entries for %s", recordID)
	}

	env, _, _ = c.do(http.MethodGet, "/api/v1/payroll-periods", nil, http.StatusOK)
	if !strings.Contains(string(env.Data), "2030-03") {
		t.Fatalf("expected 2030-03 in periods, got %s", string(env.Data))
	}
	c.do(http.MethodGet, "/api/v1/audit-logs/summary?days=1", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/v1/audit-logs/my", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/v1/dashboard/charts/attendance-trend", nil, http.StatusOK)

	// logout kills the access token as well as the refresh token
	c.do(http.MethodPost, "/api/v1/auth/logout", nil, http.StatusOK)
	c.do(http.MethodGet, "/api/v1/auth/me", nil, http.StatusUnauthorized)
}

func first(env envelope, _ *http.Response, _ []byte) envelope {
	return env
}
