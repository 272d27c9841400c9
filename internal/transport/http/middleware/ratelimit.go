package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/shared"
)

// pruneAt is the bucket count past which expired buckets are swept.
const pruneAt = 4096

type keyFunc func(r *http.Request) string

type bucket struct {
	count int
	reset time.Time
}

// limiter is a fixed-window counter per key.
type limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	key     keyFunc
	buckets map[string]*bucket
}

func newLimiter(limit int, window time.Duration, key keyFunc) *limiter {
	return &limiter{limit: limit, window: window, key: key, buckets: map[string]*bucket{}}
}

// RateLimit throttles every request per signed-in user, or per client IP
// for anonymous calls.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, window, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// sensitiveRoutes are writes that move money or close a workflow, plus the
// credential endpoints. Paths are relative to /api/v1.
var sensitiveRoutes = []struct {
	prefix   string
	suffixes []string
}{
	{"/leave/requests/", []string{"/approve", "/reject"}},
	{"/bonus-calculations/", []string{"/calculate", "/approve"}},
	{"/bonus-distributions/", []string{"/pay"}},
	{"/payroll/records/", []string{"/finalize"}},
	{"/auth/", []string{"/refresh", "/change-password"}},
}

// SensitiveMutationRateLimit adds tighter windows on top of RateLimit: login
// gets a quarter of the base limit per IP and per email, sensitive writes get
// half of it per actor.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	loginByIP := newLimiter(max(baseLimit/4, 1), window, clientIPKey)
	loginByEmail := newLimiter(max(baseLimit/4, 1), window, loginEmailKey)
	writes := newLimiter(max(baseLimit/2, 1), window, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isWrite(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			path := apiPath(r.URL.Path)
			switch {
			case path == "/auth/login":
				if !loginByIP.allow(w, r) || !loginByEmail.allow(w, r) {
					return
				}
			case isSensitive(path):
				if !writes.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *limiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.key(r)
	if key == "" {
		key = clientIPKey(r)
	}
	now := time.Now()

	l.mu.Lock()
	if len(l.buckets) >= pruneAt {
		for k, b := range l.buckets {
			if now.After(b.reset) {
				delete(l.buckets, k)
			}
		}
	}
	b, ok := l.buckets[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	count, reset := b.count, b.reset
	l.mu.Unlock()

	resetIn := ceilSeconds(reset.Sub(now))
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-count, 0)))
	headers.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if count <= l.limit {
		return true
	}

	headers.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

func loginEmailKey(r *http.Request) string {
	email := peekJSONString(r, "email")
	if email == "" {
		return clientIPKey(r)
	}
	return "email:" + strings.ToLower(email)
}

// peekJSONString reads one string field from a JSON body and puts the bytes
// back, so an oversized body still fails downstream.
func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func isSensitive(path string) bool {
	for _, route := range sensitiveRoutes {
		if !strings.HasPrefix(path, route.prefix) {
			continue
		}
		for _, suffix := range route.suffixes {
			if strings.HasSuffix(path, suffix) {
				return true
			}
		}
	}
	return false
}

func apiPath(path string) string {
	path = strings.TrimPrefix(path, "/api/v1")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
