package config

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_commission/diagnostics"
	"go_commission/handlers"
	"go_commission/logger"
	"go_commission/progression"
	"go_commission/routes"
	"go_commission/utils"
)

func TestSetupApp(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := diagnostics.NewMetrics(reg)
	throttled := diagnostics.NewThrottledLogger(logger.Nop(), metrics, diagnostics.DefaultThrottleConfig())
	jwt := utils.NewJWTManager("test-secret-long-enough")
	log := logger.Nop()

	// 未认证的请求在访问数据库之前就会被拒绝
	app := SetupApp(AppOptions{
		Config:   &Config{Env: "production"},
		Monitor:  diagnostics.NewErrorMonitor(throttled, metrics),
		Gatherer: reg,
		Routes: routes.Dependencies{
			JWT:       jwt,
			Log:       log,
			Auth:      handlers.NewAuthHandler(nil, jwt, utils.DefaultLoginLimiter(), log),
			Members:   handlers.NewMemberHandler(nil, log),
			Contracts: handlers.NewContractHandler(nil, log),
			Dashboard: handlers.NewDashboardHandler(nil, log),
			Team:      handlers.NewTeamHandler(nil, log),
			Levels:    handlers.NewLevelHandler(progression.NewEvaluator(nil), log),
		},
	})

	get := func(path string, header ...string) (*http.Response, string) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if len(header) == 2 {
			req.Header.Set(header[0], header[1])
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		return resp, string(body)
	}

	resp, body := get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = get("/health", "X-Request-ID", "req-123")
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))

	for _, path := range []string{"/api/member/dashboard", "/api/member/contracts", "/api/levels", "/api/navigation", "/api/admin/members"} {
		resp, _ = get(path)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, _ = get("/api/member/dashboard", "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = get("/api/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"error"`)

	resp, body = get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "commission_progression_evaluation_duration_seconds")
}
