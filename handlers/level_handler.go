package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"go_commission/logger"
	"go_commission/progression"
)

// LevelHandler 职级规则查询与试算
type LevelHandler struct {
	eval *progression.Evaluator
	log  *logger.Logger
}

// NewLevelHandler 创建职级处理器
func NewLevelHandler(eval *progression.Evaluator, log *logger.Logger) *LevelHandler {
	return &LevelHandler{eval: eval, log: log}
}

// List 返回职级规则表
func (h *LevelHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": h.eval.Table().Rules(),
	})
}

type evaluateRequest struct {
	PersonalRevenue float64                  `json:"personalRevenue"`
	GroupRevenue    float64                  `json:"groupRevenue"`
	Downline        []progression.TeamMember `json:"downline"`
}

// Evaluate 按提交的业绩和下级试算看板指标，不读写数据库
func (h *LevelHandler) Evaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		// 未知职级名称在解析阶段就会报错，按输入校验错误处理
		var verr *progression.ValidationError
		if errors.As(err, &verr) {
			return serviceError(c, h.log, verr, "试算")
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败，请检查输入格式",
		})
	}

	in := progression.MemberInputs{
		PersonalRevenue: req.PersonalRevenue,
		GroupRevenue:    req.GroupRevenue,
	}
	metrics, err := h.eval.Evaluate(in, req.Downline)
	if err != nil {
		return serviceError(c, h.log, err, "试算")
	}

	return c.JSON(fiber.Map{
		"data": metrics,
	})
}
