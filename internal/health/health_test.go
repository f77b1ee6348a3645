package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	status  Status
	message string
}

func (c stubChecker) Check() Check {
	return Check{Name: "stub", Status: c.status, Message: c.message}
}

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("postgres", stubChecker{status: StatusHealthy})
	handler.RegisterChecker("redis", stubChecker{status: StatusHealthy})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "v1.0.0", response.Version)
	assert.Len(t, response.Checks, 2)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("postgres", stubChecker{status: StatusUnhealthy, message: "connection refused"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, StatusUnhealthy, response.Status)
}

func TestHealthHandler_DegradedStays200(t *testing.T) {
	// Деградация кеша не повод отдавать 503.
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("redis", stubChecker{status: StatusDegraded, message: "cache disabled"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, StatusDegraded, response.Status)
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		wantCode int
		wantBody string
	}{
		{name: "healthy", status: StatusHealthy, wantCode: http.StatusOK, wantBody: "ready"},
		{name: "degraded still ready", status: StatusDegraded, wantCode: http.StatusOK, wantBody: "ready"},
		{name: "unhealthy", status: StatusUnhealthy, wantCode: http.StatusServiceUnavailable, wantBody: "not ready"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("v1.0.0")
			handler.RegisterChecker("storage", stubChecker{status: tc.status})

			w := httptest.NewRecorder()
			handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestSimpleChecker(t *testing.T) {
	checker := NewSimpleChecker("slow", func() error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	check := checker.Check()
	assert.Equal(t, StatusHealthy, check.Status)
	assert.GreaterOrEqual(t, check.DurationMs, int64(10))
}

func TestSimpleChecker_Error(t *testing.T) {
	checker := NewSimpleChecker("broken", func() error {
		return errors.New("service unavailable")
	})

	check := checker.Check()
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, "service unavailable", check.Message)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(_ context.Context) error { return p.err }

func TestStorageChecker(t *testing.T) {
	check := NewStorageChecker("postgres", stubPinger{}).Check()
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Equal(t, "postgres", check.Name)

	check = NewStorageChecker("postgres", stubPinger{err: errors.New("connection refused")}).Check()
	assert.Equal(t, StatusUnhealthy, check.Status)
}
