package performancehandler

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
	"hrms/internal/domain/performance"
	"hrms/internal/transport/http/middleware"
)

type fakeService struct {
	Service
	result  performance.Result
	updates []performance.ResultUpdate
}

func (f *fakeService) GetResult(_ context.Context, id string) (performance.Result, error) {
	if id != f.result.ID {
		return performance.Result{}, performance.ErrResultNotFound
	}
	return f.result, nil
}

func (f *fakeService) UpdateResult(_ context.Context, _, _ string, in performance.ResultUpdate) (performance.Result, error) {
	f.updates = append(f.updates, in)
	return f.result, nil
}

func serve(svc Service, user auth.UserContext, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	NewHandler(svc).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, bytes.NewBufferString(body)))
	return rec
}

func newFake() *fakeService {
	return &fakeService{result: performance.Result{ID: "res1", EmployeeID: "e1", EvaluatorID: "e2", Status: performance.ResultInProgress}}
}

const scoredUpdate = `{"selfEvaluation":"good year","status":"completed","scores":[{"criteriaItem":"quality","score":90,"weight":100}]}`

func TestEmployeeOnlyWritesSelfEvaluation(t *testing.T) {
	svc := newFake()
	rec := serve(svc, auth.UserContext{UserID: "u1", Role: auth.RoleUser, EmployeeID: "e1"}, http.MethodPut, "/evaluation-results/res1", scoredUpdate)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.updates, 1)
	got := svc.updates[0]
	require.NotNil(t, got.SelfEvaluation)
	assert.Equal(t, "good year", *got.SelfEvaluation)
	assert.Nil(t, got.Scores)
	assert.Empty(t, got.Status)
}

func TestEvaluatorWritesScores(t *testing.T) {
	svc := newFake()
	rec := serve(svc, auth.UserContext{UserID: "u2", Role: auth.RoleUser, EmployeeID: "e2"}, http.MethodPut, "/evaluation-results/res1", scoredUpdate)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.updates, 1)
	assert.Len(t, svc.updates[0].Scores, 1)
	assert.Equal(t, performance.ResultCompleted, svc.updates[0].Status)
}

func TestOutsidersCannotSeeResults(t *testing.T) {
	svc := newFake()
	outsider := auth.UserContext{UserID: "u3", Role: auth.RoleUser, EmployeeID: "e3"}

	rec := serve(svc, outsider, http.MethodGet, "/evaluation-results/res1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(svc, outsider, http.MethodPut, "/evaluation-results/res1", scoredUpdate)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, svc.updates)

	rec = serve(svc, outsider, http.MethodPost, "/evaluation-results/res1/approve", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
