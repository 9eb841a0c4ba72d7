package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollworks.io/erp/internal/api/middleware"
	"rollworks.io/erp/internal/diagnostics"
	"rollworks.io/erp/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

type fakeDiag struct {
	readyErr error
	report   diagnostics.Report
}

func (f fakeDiag) Ready(context.Context) error { return f.readyErr }
func (f fakeDiag) Run(context.Context) diagnostics.Report { return f.report }

func newRouter(d Diagnoser) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	NewServer(d).Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestLiveness(t *testing.T) {
	code, body := do(t, newRouter(fakeDiag{}), http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadiness(t *testing.T) {
	code, body := do(t, newRouter(fakeDiag{}), http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = do(t, newRouter(fakeDiag{readyErr: errors.New("down")}), http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "down", body["status"])
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantCode int
	}{
		{"ok", diagnostics.StatusOK, http.StatusOK},
		{"degraded", diagnostics.StatusDegraded, http.StatusOK},
		{"down", diagnostics.StatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fakeDiag{report: diagnostics.Report{
				Status: tt.status,
				Tables: map[string]int64{"orders": 2},
			}}
			code, body := do(t, newRouter(d), http.MethodGet, "/diagnostics", "")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, map[string]any{"orders": float64(2)}, body["tables"])
		})
	}
}

func TestLogLevel(t *testing.T) {
	r := newRouter(fakeDiag{})
	t.Cleanup(func() { _ = logger.SetLevel("error") })

	code, body := do(t, r, http.MethodPut, "/log/level", `{"level":"debug"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "debug", body["level"])

	code, body = do(t, r, http.MethodGet, "/log/level", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "debug", body["level"])

	code, body = do(t, r, http.MethodPut, "/log/level", `{"level":"loud"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_LOG_LEVEL", body["code"])

	code, _ = do(t, r, http.MethodPut, "/log/level", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
