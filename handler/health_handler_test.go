package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Check(t *testing.T) {
	tests := map[string]struct {
		checks       map[string]HealthCheck
		expectStatus string
		expectCode   int
	}{
		"no checks": {
			expectStatus: "healthy",
			expectCode:   http.StatusOK,
		},
		"all passing": {
			checks: map[string]HealthCheck{
				"database": func(ctx context.Context) error { return nil },
				"token":    func(ctx context.Context) error { return nil },
			},
			expectStatus: "healthy",
			expectCode:   http.StatusOK,
		},
		"one failing": {
			checks: map[string]HealthCheck{
				"database": func(ctx context.Context) error { return errors.New("connection refused") },
				"token":    func(ctx context.Context) error { return nil },
			},
			expectStatus: "degraded",
			expectCode:   http.StatusServiceUnavailable,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			h := NewHealthHandler(nil)
			for checkName, check := range tc.checks {
				h.AddCheck(checkName, check)
			}
			mux := http.NewServeMux()
			h.Register(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.expectCode, rec.Code)
			var report HealthReport
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
			assert.Equal(t, tc.expectStatus, report.Status)
			assert.Len(t, report.Checks, len(tc.checks))
			if tc.expectStatus == "degraded" {
				assert.Equal(t, "connection refused", report.Checks["database"])
				assert.Equal(t, "ok", report.Checks["token"])
			}
		})
	}
}

func TestHealthHandler_Metrics(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(nil).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
