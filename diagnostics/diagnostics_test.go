package diagnostics

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_commission/logger"
	"go_commission/progression"
)

func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter("test", "production", buf)
}

func TestThrottledLogger_SuppressesAboveBurst(t *testing.T) {
	var buf bytes.Buffer
	metrics := NewMetrics(prometheus.NewRegistry())
	tl := NewThrottledLogger(newTestLogger(&buf), metrics, ThrottleConfig{Interval: time.Minute, Burst: 2})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tl.now = func() time.Time { return now }

	assert.True(t, tl.Warn("db", "查询失败"))
	assert.True(t, tl.Warn("db", "查询失败"))
	assert.False(t, tl.Warn("db", "查询失败"))
	assert.False(t, tl.Error("db", "查询失败"))
	assert.True(t, tl.Info("other", "独立的键"))
	assert.Equal(t, 2, tl.Suppressed("db"))
	assert.Equal(t, 0, tl.Suppressed("other"))

	tl.Flush()
	assert.Equal(t, 0, tl.Suppressed("db"))
	assert.Contains(t, buf.String(), `"suppressed":2`)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.suppressedLogs))

	// 一个完整周期后令牌恢复
	now = now.Add(time.Minute)
	assert.True(t, tl.Warn("db", "查询失败"))
}

func TestThrottledLogger_FlushPrunesIdleKeys(t *testing.T) {
	var buf bytes.Buffer
	tl := NewThrottledLogger(newTestLogger(&buf), nil, ThrottleConfig{Interval: time.Second, Burst: 1})

	now := time.Now()
	tl.now = func() time.Time { return now }
	tl.Info("k", "a")

	now = now.Add(3 * time.Second)
	tl.Flush()

	tl.mu.Lock()
	_, ok := tl.states["k"]
	tl.mu.Unlock()
	assert.False(t, ok)
}

func TestThrottledLogger_StartStop(t *testing.T) {
	var buf bytes.Buffer
	tl := NewThrottledLogger(newTestLogger(&buf), nil, ThrottleConfig{Interval: 10 * time.Millisecond, Burst: 1})

	tl.Start(context.Background())
	tl.Start(context.Background())
	tl.Warn("k", "a")
	tl.Warn("k", "a")

	require.Eventually(t, func() bool { return tl.Suppressed("k") == 0 }, time.Second, 5*time.Millisecond)
	tl.Stop()
	tl.Stop()
}

func TestErrorMonitor(t *testing.T) {
	var buf bytes.Buffer
	metrics := NewMetrics(prometheus.NewRegistry())
	tl := NewThrottledLogger(newTestLogger(&buf), metrics, DefaultThrottleConfig())

	app := fiber.New()
	app.Use(NewErrorMonitor(tl, metrics).Handler())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/down", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusServiceUnavailable, "维护中") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.errors.WithLabelValues("panic")))

	resp, err = app.Test(httptest.NewRequest("GET", "/down", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// panic 单独计数，404 不计
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.errors.WithLabelValues("server_error")))
	assert.Contains(t, buf.String(), "请求处理发生panic")
}

func TestMetrics_ObserveEvaluation(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.ObserveEvaluation(progression.LevelSenior, 5*time.Millisecond)
	metrics.ObserveEvaluation(progression.LevelSenior, 5*time.Millisecond)
	metrics.ObserveLevelChange(progression.LevelJunior, progression.LevelSenior)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.evaluations.WithLabelValues("senior")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.levelChanges.WithLabelValues("junior", "senior")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveError("panic") })
}
