package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"go_commission/logger"
	"go_commission/middleware"
	"go_commission/progression"
)

// DashboardProvider 计算成员看板
type DashboardProvider interface {
	Dashboard(ctx context.Context, memberID uint) (progression.DashboardMetrics, error)
}

// DashboardHandler 成员看板
type DashboardHandler struct {
	svc DashboardProvider
	log *logger.Logger
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(svc DashboardProvider, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

// Get 返回当前成员的职级、佣金和晋升进度
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	metrics, err := h.svc.Dashboard(c.UserContext(), memberID)
	if err != nil {
		return serviceError(c, h.log, err, "计算看板")
	}

	return c.JSON(fiber.Map{
		"data": metrics,
	})
}
