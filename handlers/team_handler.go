package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"go_commission/logger"
	"go_commission/middleware"
	"go_commission/models"
	"go_commission/services"
)

// TeamManager 团队结构与邀请
type TeamManager interface {
	Hierarchy(ctx context.Context, memberID uint) (*services.Hierarchy, error)
	CreateInvitation(ctx context.Context, inviterID uint, email, phone string) (*models.TeamInvitation, error)
	AcceptInvitation(ctx context.Context, memberID uint, code string) (*models.Member, error)
}

// TeamHandler 我的团队
type TeamHandler struct {
	svc TeamManager
	log *logger.Logger
}

// NewTeamHandler 创建团队处理器
func NewTeamHandler(svc TeamManager, log *logger.Logger) *TeamHandler {
	return &TeamHandler{svc: svc, log: log}
}

// Hierarchy 获取当前成员的上级和直接下级
func (h *TeamHandler) Hierarchy(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	hierarchy, err := h.svc.Hierarchy(c.UserContext(), memberID)
	if err != nil {
		return serviceError(c, h.log, err, "查询团队")
	}
	return c.JSON(fiber.Map{
		"data": hierarchy,
	})
}

type createInvitationRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

// CreateInvitation 邀请新成员加入自己的团队
func (h *TeamHandler) CreateInvitation(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createInvitationRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if req.Email == "" && req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "邮箱和电话至少填写一项",
		})
	}

	inv, err := h.svc.CreateInvitation(c.UserContext(), memberID, req.Email, req.Phone)
	if err != nil {
		return serviceError(c, h.log, err, "创建邀请")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "邀请已创建",
		"data": fiber.Map{
			"id":          inv.ID,
			"invite_code": inv.InviteCode,
			"expired_at":  inv.ExpiredAt,
		},
	})
}

type acceptInvitationRequest struct {
	InviteCode string `json:"invite_code" validate:"required,max=50"`
}

// AcceptInvitation 接受邀请加入团队
func (h *TeamHandler) AcceptInvitation(c *fiber.Ctx) error {
	memberID, ok := middleware.CurrentMemberID(c)
	if !ok {
		return unauthorized(c)
	}

	var req acceptInvitationRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	inviter, err := h.svc.AcceptInvitation(c.UserContext(), memberID, req.InviteCode)
	if err != nil {
		return serviceError(c, h.log, err, "接受邀请")
	}

	return c.JSON(fiber.Map{
		"message": "成功接受邀请，已加入团队",
		"leader": fiber.Map{
			"id":   inviter.ID,
			"name": inviter.Name,
		},
	})
}
