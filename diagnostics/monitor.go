package diagnostics

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrorMonitor HTTP 错误监控
// 为每个请求分配请求ID，捕获panic，并通过限流日志和指标上报5xx错误
type ErrorMonitor struct {
	log     *ThrottledLogger
	metrics *Metrics
}

// NewErrorMonitor 创建错误监控
func NewErrorMonitor(log *ThrottledLogger, metrics *Metrics) *ErrorMonitor {
	return &ErrorMonitor{log: log, metrics: metrics}
}

// Handler 返回 fiber 中间件
func (m *ErrorMonitor) Handler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, requestID)
		c.Locals("request_id", requestID)

		key := c.Method() + " " + c.Path()

		defer func() {
			if r := recover(); r != nil {
				m.metrics.ObserveError("panic")
				m.log.Error("panic "+key, "请求处理发生panic",
					"request_id", requestID,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
				err = fiber.NewError(fiber.StatusInternalServerError, "服务器内部错误")
			}
		}()

		err = c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		if status >= fiber.StatusInternalServerError {
			m.metrics.ObserveError("server_error")
			msg := ""
			if err != nil {
				msg = err.Error()
			}
			m.log.Error("5xx "+key, "请求处理失败",
				"request_id", requestID,
				"status", status,
				"error", msg,
			)
		}
		return err
	}
}
